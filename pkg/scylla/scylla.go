package scylla

import (
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/spf13/viper"
)

// BuildClusterConfigFromEnv builds a gocql cluster config from viper keys
// under the given prefix, e.g. STORAGE_FEATURE_STORE_1_CONTACT_POINTS.
func BuildClusterConfigFromEnv(prefix string) (*gocql.ClusterConfig, error) {
	contactPointsKey := prefix + "_CONTACT_POINTS"
	if !viper.IsSet(contactPointsKey) {
		return nil, fmt.Errorf("%s not set", contactPointsKey)
	}
	portKey := prefix + "_PORT"
	if !viper.IsSet(portKey) {
		return nil, fmt.Errorf("%s not set", portKey)
	}
	keyspaceKey := prefix + "_KEYSPACE"
	if !viper.IsSet(keyspaceKey) {
		return nil, fmt.Errorf("%s not set", keyspaceKey)
	}

	contactPoints := strings.Split(viper.GetString(contactPointsKey), ",")
	for i := range contactPoints {
		contactPoints[i] = strings.TrimSpace(contactPoints[i])
	}

	cluster := gocql.NewCluster(contactPoints...)
	cluster.Port = viper.GetInt(portKey)
	cluster.Keyspace = viper.GetString(keyspaceKey)
	cluster.Consistency = gocql.Quorum

	if viper.IsSet(prefix + "_TIMEOUT_IN_MS") {
		cluster.Timeout = time.Duration(viper.GetInt(prefix+"_TIMEOUT_IN_MS")) * time.Millisecond
	}
	if viper.IsSet(prefix + "_NUM_CONNS") {
		cluster.NumConns = viper.GetInt(prefix + "_NUM_CONNS")
	}
	if viper.IsSet(prefix + "_USERNAME") {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: viper.GetString(prefix + "_USERNAME"),
			Password: viper.GetString(prefix + "_PASSWORD"),
		}
	}
	return cluster, nil
}
