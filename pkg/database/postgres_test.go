package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pda-bills-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "bills",
		Password: `it's secret`,
		Name:     "pda_bills",
		SSLMode:  "require",
	})

	assert.Equal(t, `host=db.internal port=5432 user=bills password='it\'s secret' dbname=pda_bills sslmode=require application_name=pda-bills-api connect_timeout=5`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "pda_bills"})

	assert.NotContains(t, dsn, "password=")
	assert.NotContains(t, dsn, "sslmode=")
}
