package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "mysql",
			opts: Options{Driver: DriverMySQL, Host: "db", Username: "u", Password: "p", Database: "paperqa"},
			want: "u:p@tcp(db:3306)/paperqa?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "postgres",
			opts: Options{Driver: DriverPostgres, Host: "db", Username: "u", Password: "p", Database: "paperqa", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=paperqa sslmode=disable",
		},
		{
			name: "sqlite",
			opts: Options{Driver: DriverSQLite, Path: ":memory:"},
			want: ":memory:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.DSN())
		})
	}
}

func TestValidate(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())

	o.Driver = "oracle"
	assert.Len(t, o.Validate(), 1)
}
