package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_PreservesOrderAndPrices(t *testing.T) {
	c := New()
	c.put(Line{ProductID: "9", Name: "Khamrah", Quantity: 2, Price: decimal.RequireFromString("50000.500"), Image: "a.jpg"})
	c.put(Line{ProductID: "1", Name: "Asad", Quantity: 1, Price: decimal.NewFromInt(30000)})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"9": {"nombre": "Khamrah", "cantidad": 2, "precio": 50000.5, "imagen": "a.jpg"},
		"1": {"nombre": "Asad", "cantidad": 1, "precio": 30000, "imagen": ""}
	}`, string(data))

	got := New()
	require.NoError(t, json.Unmarshal(data, got))
	assert.Equal(t, []string{"9", "1"}, got.ProductIDs())

	l, ok := got.Line("9")
	require.True(t, ok)
	assert.Equal(t, 2, l.Quantity)
	assert.True(t, decimal.RequireFromString("50000.5").Equal(l.Price))
}

func TestCodec_AcceptsStringValues(t *testing.T) {
	// Carts written by the previous storefront kept prices and sometimes
	// quantities as strings.
	data := []byte(`{"3": {"nombre": "Yara", "cantidad": "4", "precio": "20000.000", "imagen": null, "extra": [1, 2]}}`)

	c := New()
	require.NoError(t, json.Unmarshal(data, c))

	l, ok := c.Line("3")
	require.True(t, ok)
	assert.Equal(t, "Yara", l.Name)
	assert.Equal(t, 4, l.Quantity)
	assert.True(t, decimal.NewFromInt(20000).Equal(l.Price))
	assert.Empty(t, l.Image)
}

func TestCodec_DropsEmptyLines(t *testing.T) {
	c := New()
	require.NoError(t, json.Unmarshal([]byte(`{"1": {"cantidad": 0}, "2": {"cantidad": 1, "precio": 10}}`), c))
	assert.Equal(t, []string{"2"}, c.ProductIDs())
}

func TestCodec_CapsOversizedLines(t *testing.T) {
	c := New()
	require.NoError(t, json.Unmarshal([]byte(`{"1": {"cantidad": 100000, "precio": 10}}`), c))

	l, ok := c.Line("1")
	require.True(t, ok)
	assert.Equal(t, MaxQuantity, l.Quantity)
}

func TestCodec_RejectsMalformed(t *testing.T) {
	c := New()
	err := json.Unmarshal([]byte(`{"1": {"precio": "abc"}}`), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line "1"`)
}
