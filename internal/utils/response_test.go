package utils

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseShape(t *testing.T) {
	c, w := contextWithQuery("")
	ErrorResponse(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty", body["error"])
	assert.Equal(t, "EMPTY_CART", body["code"])
	assert.NotContains(t, body, "details")
}

func TestContextAccessors(t *testing.T) {
	c, _ := contextWithQuery("")

	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, "en", GetLangFromContext(c))

	c.Set(ContextKeyUserID, uint(7))
	c.Set(ContextKeyRole, "admin")
	c.Set(ContextKeyLang, "fa")

	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
	role, _ := GetRoleFromContext(c)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "fa", GetLangFromContext(c))
}

func TestParseIDParam(t *testing.T) {
	c, _ := contextWithQuery("")
	for value, want := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
		c.Params = nil
		c.AddParam("id", value)
		_, ok := ParseIDParam(c, "id")
		assert.Equal(t, want, ok, value)
	}
}
