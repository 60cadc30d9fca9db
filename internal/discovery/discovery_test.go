package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDiscovery(t *testing.T) {
	d, err := NewStaticDiscovery([]string{"h1:9092", "h2:9093"})
	require.NoError(t, err)
	defer d.Close()

	brokers, err := d.DiscoverBrokers()
	require.NoError(t, err)
	require.Len(t, brokers, 2)
	assert.Equal(t, "h1", brokers[0].Host)
	assert.EqualValues(t, 9092, brokers[0].Port)
	assert.Equal(t, "h2:9093", brokers[1].Addr())
}

func TestStaticDiscoveryRejectsBadURI(t *testing.T) {
	_, err := NewStaticDiscovery([]string{"no-port"})
	assert.Error(t, err)

	_, err = NewStaticDiscovery([]string{"h1:not-a-number"})
	assert.Error(t, err)
}

func TestNewDiscoveryDefaultsToStatic(t *testing.T) {
	d, err := NewDiscovery(nil, []string{"h1:9092"})
	require.NoError(t, err)
	_, ok := d.(*StaticDiscovery)
	assert.True(t, ok)

	d, err = NewDiscovery(&DiscoveryConfig{Type: "static"}, []string{"h1:9092"})
	require.NoError(t, err)
	_, ok = d.(*StaticDiscovery)
	assert.True(t, ok)
}

func TestNewDiscoveryUnknownType(t *testing.T) {
	_, err := NewDiscovery(&DiscoveryConfig{Type: "zookeeper"}, nil)
	assert.Error(t, err)
}

func TestParseBrokerURI(t *testing.T) {
	host, port, err := ParseBrokerURI("broker.internal:19092")
	require.NoError(t, err)
	assert.Equal(t, "broker.internal", host)
	assert.EqualValues(t, 19092, port)
}
