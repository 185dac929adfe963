package database

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewScyllaCluster_Defaults(t *testing.T) {
	cluster := newScyllaCluster(ScyllaConfig{Hosts: []string{"10.0.0.1:9042"}})
	assert.Equal(t, []string{"10.0.0.1:9042"}, cluster.Hosts)
	assert.Equal(t, gocql.Quorum, cluster.Consistency)
	assert.Equal(t, 5*time.Second, cluster.Timeout)
	assert.Equal(t, 20, cluster.NumConns)
	assert.Nil(t, cluster.Authenticator)

	cluster = newScyllaCluster(ScyllaConfig{Hosts: []string{"h"}, Username: "crown", Password: "pw", NumConns: 4})
	require.NotNil(t, cluster.Authenticator)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "crown", Password: "pw"}, cluster.Authenticator)
	assert.Equal(t, 4, cluster.NumConns)
}

func TestConnectScylla_RejectsBadKeyspace(t *testing.T) {
	for _, ks := range []string{"", "crown; DROP", "1crown"} {
		_, err := ConnectScylla(ScyllaConfig{Hosts: []string{"127.0.0.1"}, Keyspace: ks}, zaptest.NewLogger(t))
		assert.Error(t, err, ks)
	}
}
