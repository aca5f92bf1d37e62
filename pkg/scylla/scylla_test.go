package scylla

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestBuildClusterConfigFromEnv_NoContactPoints(t *testing.T) {
	_, err := BuildClusterConfigFromEnv("TEST")
	assert.NotNil(t, err)
	assert.Equal(t, "TEST_CONTACT_POINTS not set", err.Error())
}

func TestBuildClusterConfigFromEnv_NoPort(t *testing.T) {
	viper.Set("TEST_CONTACT_POINTS", "127.0.0.1")

	_, err := BuildClusterConfigFromEnv("TEST")
	assert.NotNil(t, err)
	assert.Equal(t, "TEST_PORT not set", err.Error())
}

func TestBuildClusterConfigFromEnv_NoKeyspace(t *testing.T) {
	viper.Set("TEST_CONTACT_POINTS", "127.0.0.1")
	viper.Set("TEST_PORT", "9042")

	_, err := BuildClusterConfigFromEnv("TEST")
	assert.NotNil(t, err)
	assert.Equal(t, "TEST_KEYSPACE not set", err.Error())
}

func TestBuildClusterConfigFromEnv_Complete(t *testing.T) {
	viper.Set("TEST_CONTACT_POINTS", "10.0.0.1, 10.0.0.2")
	viper.Set("TEST_PORT", "9042")
	viper.Set("TEST_KEYSPACE", "microscopium")
	viper.Set("TEST_NUM_CONNS", "4")

	cluster, err := BuildClusterConfigFromEnv("TEST")
	assert.Nil(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cluster.Hosts)
	assert.Equal(t, 9042, cluster.Port)
	assert.Equal(t, "microscopium", cluster.Keyspace)
	assert.Equal(t, 4, cluster.NumConns)
}
