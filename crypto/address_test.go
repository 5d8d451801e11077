package crypto

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	var addr Address
	copy(addr[:], bytes.Repeat([]byte{0x5A}, AddressLength))

	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, AddressPrefix+"1"))

	parsed, err := ParseAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	fromHex, err := ParseAddress(addr.Hex())
	require.NoError(t, err)
	require.Equal(t, addr, fromHex)
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	_, err := ParseAddress("0x1234")
	require.Error(t, err)

	_, err = ParseAddress("not-an-address")
	require.Error(t, err)
}

func TestAddressJSONUsesBech32(t *testing.T) {
	var addr Address
	addr[0] = 0x01
	encoded, err := json.Marshal(struct{ Owner Address }{addr})
	require.NoError(t, err)
	require.Contains(t, string(encoded), addr.String())

	var decoded struct{ Owner Address }
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, addr, decoded.Owner)
}

func TestSignAndRecoverAddress(t *testing.T) {
	key, err := PrivateKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	digest := Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.Address(), recovered)
	require.True(t, IsOnCurve(key.Address()), "key addresses are curve points")

	other := Keccak256([]byte("other payload"))
	wrong, err := RecoverAddress(other, sig)
	if err == nil {
		require.NotEqual(t, key.Address(), wrong)
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	path := t.TempDir() + "/keys/payer.json"
	require.NoError(t, SaveToKeystore(path, key, "secret", LightKeystore))

	loaded, err := LoadFromKeystore(path, "secret")
	require.NoError(t, err)
	require.Equal(t, key.Address(), loaded.Address())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}
