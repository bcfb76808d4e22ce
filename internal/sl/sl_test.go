package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecret(t *testing.T) {
	require.Equal(t, "AIzaS***", Secret("AIzaSyExampleKey").Value.String())
	require.Equal(t, "***", Secret("abc").Value.String())
	require.Equal(t, "?", Secret("").Value.String())
}

func TestErr(t *testing.T) {
	a := Err(errors.New("boom"))
	require.Equal(t, "error", a.Key)
	require.Equal(t, "boom", a.Value.String())
}

func TestErr_Nil(t *testing.T) {
	require.Equal(t, "<nil>", Err(nil).Value.String())
}

func TestModuleAndDetails(t *testing.T) {
	require.Equal(t, "mod", Module("intake").Key)

	d := Details("arch.png", "image/png", 42)
	require.Equal(t, "file", d.Key)
	attrs := d.Value.Group()
	require.Len(t, attrs, 3)
	require.Equal(t, "arch.png", attrs[0].Value.String())
	require.Equal(t, int64(42), attrs[2].Value.Int64())
}
