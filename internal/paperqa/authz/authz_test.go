package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pqmodel "github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/pkg/component/db"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
)

func TestEnforcerDefaults(t *testing.T) {
	opts := dbopts.NewOptions()
	opts.Driver = dbopts.DriverSQLite
	opts.Path = ":memory:"
	gdb, err := db.New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	e, err := NewEnforcer(gdb)
	require.NoError(t, err)

	tests := []struct {
		role, obj, act string
		want           bool
	}{
		{pqmodel.RoleUser, ObjArticles, ActRead, true},
		{pqmodel.RoleUser, ObjChat, ActAsk, true},
		{pqmodel.RoleUser, ObjReports, ActValidate, false},
		{pqmodel.RoleReviewer, ObjReports, ActValidate, true},
		{pqmodel.RoleReviewer, ObjChat, ActAsk, true},
		{pqmodel.RoleAdmin, ObjReports, ActValidate, true},
		{"", ObjArticles, ActRead, false},
	}
	for _, tt := range tests {
		ok, err := e.Enforce(tt.role, tt.obj, tt.act)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s %s %s", tt.role, tt.obj, tt.act)
	}

	// 再次创建不会重复写入
	e2, err := NewEnforcer(gdb)
	require.NoError(t, err)
	policies, err := e2.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, len(defaultPolicies))
}
