package settings

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRead(t *testing.T) {
	testCases := []struct {
		name     string
		store    MapStore
		expected Settings
	}{
		{
			name:     "unset colors fall back to orange",
			store:    MapStore{},
			expected: Settings{StarColor: "orange", NumberColor: "orange", Token: ""},
		},
		{
			name:     "configured values win",
			store:    MapStore{StarColorKey: "#FFA500", NumberColorKey: "rgb(1,2,3)", TokenKey: "tok"},
			expected: Settings{StarColor: "#FFA500", NumberColor: "rgb(1,2,3)", Token: "tok"},
		},
		{
			name:     "colors are independent",
			store:    MapStore{NumberColorKey: "red"},
			expected: Settings{StarColor: "orange", NumberColor: "red"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Read(tc.store))
		})
	}
}

func TestRegister(t *testing.T) {
	v := viper.New()
	Register(v)
	for _, s := range Schema {
		assert.Contains(t, v.AllKeys(), s.Key)
		assert.Equal(t, "", v.GetString(s.Key))
	}

	v.Set(StarColorKey, "blue")
	assert.Equal(t, "blue", Read(v).StarColor)
	assert.Equal(t, "orange", Read(v).NumberColor)
}

func TestMarshalSchema(t *testing.T) {
	out, err := MarshalSchema()
	require.NoError(t, err)

	var decoded []Setting
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Len(t, decoded, 3)
	for _, s := range decoded {
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "", s.Default)
	}
	assert.Equal(t, TokenKey, decoded[2].Key)
}
