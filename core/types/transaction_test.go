package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"gitbounty/crypto"
)

func mustKey(t *testing.T, fill byte) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{fill}, 32))
	require.NoError(t, err)
	return key
}

func TestTransactionSignersRecoversEveryKey(t *testing.T) {
	payer := mustKey(t, 0x01)
	authority := mustKey(t, 0x02)

	tx := &Transaction{
		Nonce: 7,
		Instructions: []Instruction{{
			Accounts: []AccountMeta{NewAccountMeta(payer.Address(), true)},
			Data:     []byte{0x00},
		}},
	}
	require.NoError(t, tx.Sign(payer, authority))
	require.Len(t, tx.Signatures, 2)

	signers, err := tx.Signers()
	require.NoError(t, err)
	require.Contains(t, signers, payer.Address())
	require.Contains(t, signers, authority.Address())
}

func TestTransactionDigestCoversInstructions(t *testing.T) {
	tx := &Transaction{Nonce: 1, Instructions: []Instruction{{Data: []byte{0x01}}}}
	first, err := tx.Digest()
	require.NoError(t, err)

	tx.Instructions[0].Data = []byte{0x02}
	second, err := tx.Digest()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	tx.Instructions[0].Data = []byte{0x01}
	tx.Nonce = 2
	third, err := tx.Digest()
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestAccountCloneIsDeep(t *testing.T) {
	acc := &Account{Lamports: 10, Data: []byte{1, 2}}
	clone := acc.Clone()
	clone.Data[0] = 9
	require.Equal(t, byte(1), acc.Data[0])
	require.False(t, acc.IsEmpty())
	require.True(t, (&Account{}).IsEmpty())
}
