package util

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	wrapped := WrapString(strings.Repeat("word ", 30))
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, strings.Repeat("word ", 30), strings.ReplaceAll(wrapped, "\n", " ")+" ")
	assert.Equal(t, "", WrapString(""))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2"}, SplitList(" a:1, ,b:2,"))
	assert.Nil(t, SplitList(""))
}

func TestGetClientConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupRPCClientFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--transport-endpoints=h1:1,h2:2",
		"--transport-read-buffer=64",
		"--timeout=3",
	}))
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	conf := GetClientConfig()
	assert.Equal(t, 3, conf.TimeoutSecond)
	assert.Equal(t, []string{"h1:1", "h2:2"}, conf.Transport.Endpoints)
	assert.Equal(t, 64*1024, conf.Transport.ReadBufferSize)
	assert.Equal(t, 512*1024, conf.Transport.WriteBufferSize)
	assert.Equal(t, 3, conf.Transport.RetryCount)
	assert.True(t, conf.Transport.TCPNoDelay)
	assert.Equal(t, -1, conf.Transport.TCPLingerSec)
}

func TestEnvOverridesFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DLOCK_TRANSPORT_RETRIES", "7")

	InitConfig()
	cmd := &cobra.Command{Use: "test"}
	SetupRPCClientFlags(cmd)
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	assert.Equal(t, 7, GetClientConfig().Transport.RetryCount)
}

func TestGetTransportAndSerializer(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, name := range []string{"http", "tcp", "unix"} {
		viper.Set("transport", name)
		_, err := GetTransport()
		assert.NoError(t, err, name)
		_, err = GetServerTransport()
		assert.NoError(t, err, name)
	}
	viper.Set("transport", "carrier-pigeon")
	_, err := GetTransport()
	assert.Error(t, err)

	viper.Set("serializer", "binary")
	_, err = GetSerializer()
	assert.NoError(t, err)
	viper.Set("serializer", "xml")
	_, err = GetSerializer()
	assert.Error(t, err)
}
