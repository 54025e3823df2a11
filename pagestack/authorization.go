package pagestack

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/pagestack/pagestack-go/pagestack/page"
)

// setupPageAuthorization builds the casbin model, adapter and enforcer for a
// page. Policies come from the page config; public pages default to
// everyone-reads/authenticated-writes, private pages to authenticated-only.
func (app *PageStack) setupPageAuthorization(loadedPage *page.Page) error {

	casbModel := casbinmodel.NewModel()

	basePoliciesDirectory := app.Viper.GetString("casbin.policies.outputDirectory")
	if basePoliciesDirectory == "" {
		basePoliciesDirectory = "./data/policies"
	}
	_, err := os.Stat(basePoliciesDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			err = os.MkdirAll(basePoliciesDirectory, os.ModePerm)
			if err != nil {
				return err
			}
		} else {
			return err
		}
	}

	policiesFile := fmt.Sprintf("%v/%v.policies.csv", basePoliciesDirectory, loadedPage.Name)
	f, err := os.OpenFile(policiesFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	err = f.Close()
	if err != nil {
		return err
	}

	adapter := fileadapter.NewAdapter(policiesFile)

	requestDefinition := "sub, obj, act"
	policyDefinition := "sub, obj, act, eft"
	roleDefinition := "_, _"
	policyEffect := "subjectPriority(p.eft) || deny"
	matchersDefinition := "" +
		"(" +
		"	(r.sub == p.sub || g(r.sub, p.sub)) && keyMatch(r.obj, p.obj) && (g(r.act, p.act) || keyMatch(r.act, p.act))" +
		")"

	casbModel.AddDef("r", "r", replaceVarNames(requestDefinition))
	casbModel.AddDef("p", "p", replaceVarNames(policyDefinition))
	casbModel.AddDef("g", "g", replaceVarNames(roleDefinition))
	casbModel.AddDef("e", "e", replaceVarNames(policyEffect))
	casbModel.AddDef("m", "m", replaceVarNames(matchersDefinition))

	if len(loadedPage.Config.Policies) > 0 {
		for _, p := range loadedPage.Config.Policies {
			casbModel.AddPolicy("p", "p", []string{replaceVarNames(p)})
		}
	} else if loadedPage.Config.Public {
		casbModel.AddPolicy("p", "p", []string{replaceVarNames("$everyone,*,read,allow")})
		casbModel.AddPolicy("p", "p", []string{replaceVarNames("$authenticated,*,write,allow")})
	} else {
		casbModel.AddPolicy("p", "p", []string{replaceVarNames("$authenticated,*,*,allow")})
	}

	loadedPage.CasbinModel = &casbModel
	loadedPage.CasbinAdapter = &adapter

	err = adapter.SavePolicy(casbModel)
	if err != nil {
		return err
	}

	e, err := casbin.NewEnforcer(casbModel, adapter, app.debug)
	if err != nil {
		return err
	}
	loadedPage.Enforcer = e
	e.EnableAutoSave(true)

	// verb groups: get is a read, post is a write, both fold into *
	for childRole, parentRole := range map[string]string{
		"get":   "read",
		"post":  "write",
		"read":  "*",
		"write": "*",
	} {
		_, err = e.AddRoleForUser(childRole, replaceVarNames(parentRole))
		if err != nil {
			return err
		}
	}

	// authenticated subjects also match $everyone policies
	_, err = e.AddRoleForUser(replaceVarNames("$authenticated"), replaceVarNames("$everyone"))
	if err != nil {
		return err
	}

	err = e.SavePolicy()
	if err != nil {
		return err
	}
	err = e.LoadPolicy()
	if err != nil {
		return err
	}

	if app.debug {
		loadedPage.CasbinModel.PrintModel()
	}

	return nil
}

// authorize checks every subject the bearer carries against the page
// enforcer; one allow wins.
func (app *PageStack) authorize(loadedPage *page.Page, bearer *page.BearerToken, action string) (bool, error) {
	subjects := []string{replaceVarNames("$everyone")}
	if bearer.User != nil {
		if bearer.User.System {
			return true, nil
		}
		subjects = append(subjects, replaceVarNames("$authenticated"))
		for _, role := range bearer.Roles {
			subjects = append(subjects, role.Name)
		}
	}
	for _, subject := range subjects {
		allowed, err := loadedPage.Enforcer.Enforce(subject, loadedPage.Name, action)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

func replaceVarNames(definition string) string {
	return regexp.MustCompile("\\$(\\w+)").ReplaceAllStringFunc(definition, func(match string) string {
		return "_" + strings.ToUpper(match[1:]) + "_"
	})
}
