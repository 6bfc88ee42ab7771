package nacos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerAddrs(t *testing.T) {
	cfgs, err := parseServerAddrs("10.0.0.1:8848, 10.0.0.2:8849")
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "10.0.0.2", cfgs[1].IpAddr)
	assert.Equal(t, uint64(8849), cfgs[1].Port)

	_, err = parseServerAddrs("no-port")
	assert.Error(t, err)
	_, err = parseServerAddrs("host:abc")
	assert.Error(t, err)
}
