package rtutil

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t-kawata/intelligraph/config"
)

func TestHashAndVerifyPassword(t *testing.T) {
	u := &RtUtil{}
	hash := u.HashPassword("Passw0rd!")
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, u.IsEqualHashAndPassword(hash, "Passw0rd!"))
	assert.False(t, u.IsEqualHashAndPassword(hash, "wrong"))
}

func TestCollectionNameRegexp(t *testing.T) {
	u := &RtUtil{}
	valid := []string{"my-docs", "a1", "novel-2024", "x" + "y"}
	for _, name := range valid {
		assert.True(t, u.RegexpChecker(name, config.COLLECTION_NAME_REGEXP), name)
	}
	invalid := []string{"A-Upper", "-starts-with-dash", "under_score", "日本語", "a", "has space"}
	for _, name := range invalid {
		assert.False(t, u.RegexpChecker(name, config.COLLECTION_NAME_REGEXP), name)
	}
}

func TestIsOwnerOf(t *testing.T) {
	id := uint(7)
	j := &JwtUsr{UsrID: &id}
	assert.True(t, j.IsOwnerOf(7))
	assert.False(t, j.IsOwnerOf(8))
	assert.False(t, (&JwtUsr{}).IsOwnerOf(7))
}

func TestGenerateAndParseToken(t *testing.T) {
	id := uint(42)
	tokenString, err := GenerateToken("test-secret", 1, &JwtUsr{UsrID: &id, Email: "a@b.co", IsStaff: true})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := ParseToken("test-secret", tokenString)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["usr_id"])
	assert.Equal(t, "a@b.co", claims["email"])
	assert.Equal(t, true, claims["is_staff"])
	assert.NotNil(t, claims["exp"])
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	id := uint(1)
	tokenString, err := GenerateToken("right-key", 1, &JwtUsr{UsrID: &id})
	require.NoError(t, err)
	_, err = ParseToken("wrong-key", tokenString)
	assert.Error(t, err)
}

func TestCreateCodeMsg(t *testing.T) {
	code, msg := CreateCodeMsg("required", "")
	assert.NotZero(t, code)
	assert.NotEmpty(t, msg)

	code, _ = CreateCodeMsg("collectionname", "")
	assert.NotZero(t, code)

	// 未知のタグはゼロ値を返し、呼び出し側でフォールバックする
	code, msg = CreateCodeMsg("no_such_tag", "")
	assert.Zero(t, code)
	assert.Empty(t, msg)
}
