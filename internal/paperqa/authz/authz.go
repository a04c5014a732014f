// Package authz wires the casbin RBAC enforcer used by the API.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/kart-io/logger"
	"gorm.io/gorm"

	pqmodel "github.com/kart-io/paperqa/internal/model"
)

// Objects and actions checked by the router.
const (
	ObjArticles = "articles"
	ObjChat     = "chat"
	ObjReports  = "reports"

	ActRead     = "read"
	ActAsk      = "ask"
	ActValidate = "validate"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicies 首次启动时写入
var (
	defaultPolicies = [][]string{
		{pqmodel.RoleUser, ObjArticles, ActRead},
		{pqmodel.RoleUser, ObjChat, ActAsk},
		{pqmodel.RoleUser, ObjReports, ActRead},
		{pqmodel.RoleReviewer, ObjReports, ActValidate},
		{pqmodel.RoleAdmin, "*", "*"},
	}
	defaultGroupings = [][]string{
		{pqmodel.RoleReviewer, pqmodel.RoleUser},
		{pqmodel.RoleAdmin, pqmodel.RoleReviewer},
	}
)

// NewEnforcer creates an enforcer whose policies live in the casbin_rule
// table of db, seeding the defaults into an empty table.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	a, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create gorm adapter: %w", err)
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	if err := seed(e); err != nil {
		return nil, err
	}
	return e, nil
}

func seed(e *casbin.Enforcer) error {
	policies, err := e.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policies: %w", err)
	}
	if len(policies) > 0 {
		return nil
	}

	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}
	for _, g := range defaultGroupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return fmt.Errorf("failed to seed role %v: %w", g, err)
		}
	}
	logger.Infow("seeded default authorization policies",
		"policies", len(defaultPolicies),
		"roles", len(defaultGroupings),
	)
	return nil
}
