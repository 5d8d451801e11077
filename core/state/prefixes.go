package state

var (
	accountPrefix   = []byte("account:")
	processedPrefix = []byte("processed-tx:")
)
