package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scan struct {
	ID      string  `json:"id"`
	MSLevel int32   `json:"ms_level"`
	RT      float64 `json:"rt"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := []scan{{ID: "scan=1", MSLevel: 1, RT: 0.25}, {ID: "scan=2", MSLevel: 2, RT: 1e-300}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				var out []scan
				require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}

func BenchmarkCodec_Marshal(b *testing.B) {
	payload := make([]scan, 1000)
	for i := range payload {
		payload[i] = scan{ID: "controllerType=0 controllerNumber=1 scan=1", MSLevel: 1 + int32(i%2), RT: float64(i) * 0.37}
	}
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := c.Marshal(payload); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
