package opt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	t.Run("zero value is absent", func(t *testing.T) {
		var o Optional[string]
		assert.False(t, o.IsPresent())
		assert.Equal(t, "fallback", o.OrElse("fallback"))
		assert.Nil(t, o.Ptr())
		assert.Equal(t, "none", o.String())
	})

	t.Run("some", func(t *testing.T) {
		o := Some("A")
		v, ok := o.Get()
		assert.True(t, ok)
		assert.Equal(t, "A", v)
		require.NotNil(t, o.Ptr())
		assert.Equal(t, "A", *o.Ptr())
	})

	t.Run("comparable when T is", func(t *testing.T) {
		assert.True(t, Some(1) == Some(1))
		assert.False(t, Some(0) == None[int]())
	})

	t.Run("from pointer", func(t *testing.T) {
		s := "x"
		assert.Equal(t, Some("x"), FromPtr(&s))
		assert.Equal(t, None[string](), FromPtr[string](nil))
	})

	t.Run("map", func(t *testing.T) {
		double := func(v int) int { return v * 2 }
		assert.Equal(t, Some(4), Map(Some(2), double))
		assert.Equal(t, None[int](), Map(None[int](), double))
	})
}

func TestOptional_JSON(t *testing.T) {
	type wrapper struct {
		Flag Optional[string] `json:"flag"`
	}

	data, err := json.Marshal(wrapper{Flag: Some("SPLAY")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"flag":"SPLAY"}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"flag":null}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"flag":"X"}`), &w))
	assert.Equal(t, Some("X"), w.Flag)
	require.NoError(t, json.Unmarshal([]byte(`{"flag":null}`), &w))
	assert.False(t, w.Flag.IsPresent())
}
