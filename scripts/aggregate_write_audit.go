package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// aggregate_write_audit reports every service method that writes through an
// invariant-owning repo instead of an aggregate. Run from the module root:
//
//	go run ./scripts [-strict] [root]
//
// With -strict the process exits non-zero when any such write remains.

type repoField struct {
	Name     string `json:"name"`
	RepoType string `json:"repo_type"`
	Domain   string `json:"domain"`
	Owned    bool   `json:"owned"`
}

type methodStats struct {
	StructName            string   `json:"struct_name"`
	Method                string   `json:"method"`
	File                  string   `json:"file"`
	Line                  int      `json:"line"`
	OwnedRepoWriteCalls   int      `json:"owned_repo_write_calls"`
	OwnedRepoFieldsWrites []string `json:"owned_repo_fields_written"`
	AggregateWriteCalls   int      `json:"aggregate_write_calls"`
	AggregateMethods      []string `json:"aggregate_methods"`
}

type auditReport struct {
	OwnedRepoWriteCallsites int           `json:"owned_repo_write_callsites"`
	AggregateWriteCallsites int           `json:"aggregate_write_callsites"`
	MethodsWithOwnedWrites  []methodStats `json:"methods_with_owned_writes"`
	MethodsUsingAggregates  []methodStats `json:"methods_using_aggregates"`
	OwnedRepoFieldInventory []repoField   `json:"owned_repo_field_inventory"`
	ServiceStructsWithRepos []string      `json:"service_structs_with_repos"`
	ServiceMethodsInspected int           `json:"service_methods_inspected"`
}

type structFields struct {
	RepoFields      map[string]repoField
	AggregateFields map[string]string
}

var repoWriteMethods = map[string]bool{
	"Create":                  true,
	"CreateDeliveries":        true,
	"UpdateFields":            true,
	"SetApproved":             true,
	"AddPoints":               true,
	"MarkRead":                true,
	"MarkAllRead":             true,
	"Delete":                  true,
	"DeleteByIDs":             true,
	"DeleteByModelID":         true,
	"DeleteByContributionIDs": true,
	"DeleteDeliveriesForUser": true,
	"LockByID":                true,
	"LockByIDs":               true,
}

var aggregateWriteMethods = map[string]bool{
	"CreateModel":  true,
	"Publish":      true,
	"UpdateModel":  true,
	"DeleteModel":  true,
	"Submit":       true,
	"UpdateStatus": true,
	"Delete":       true,
	"Commit":       true,
	"Notify":       true,
	"MarkRead":     true,
	"MarkAllRead":  true,
	"AssignRole":   true,
	"DeleteUser":   true,
}

func main() {
	strict := flag.Bool("strict", false, "exit 1 when a service writes through an owned repo")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	report, err := audit(root)
	if err != nil {
		exitf("%v", err)
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if *strict && report.OwnedRepoWriteCallsites > 0 {
		os.Exit(1)
	}
}

func audit(root string) (auditReport, error) {
	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		return auditReport{}, fmt.Errorf("parse dir: %w", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		return auditReport{}, fmt.Errorf("services package not found in %s", servicesDir)
	}

	files := make([]string, 0, len(pkg.Files))
	for p := range pkg.Files {
		files = append(files, p)
	}
	sort.Strings(files)

	fieldsByStruct := map[string]structFields{}
	for _, p := range files {
		collectStructFields(pkg.Files[p], fieldsByStruct)
	}
	var methods []methodStats
	for _, p := range files {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		collectMethodStats(fset, pkg.Files[p], rel, fieldsByStruct, &methods)
	}
	return buildReport(fieldsByStruct, methods), nil
}

func collectStructFields(file *ast.File, out map[string]structFields) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sf := structFields{
				RepoFields:      map[string]repoField{},
				AggregateFields: map[string]string{},
			}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				typeName := strings.TrimSpace(sel.Sel.Name)
				for _, name := range field.Names {
					switch pkgIdent.Name {
					case "repos":
						if !strings.HasSuffix(typeName, "Repo") {
							continue
						}
						domain, owned := domainForRepoType(typeName)
						sf.RepoFields[name.Name] = repoField{
							Name:     name.Name,
							RepoType: typeName,
							Domain:   domain,
							Owned:    owned,
						}
					case "domainagg":
						if strings.HasSuffix(typeName, "Aggregate") {
							sf.AggregateFields[name.Name] = typeName
						}
					}
				}
			}
			if len(sf.RepoFields) > 0 || len(sf.AggregateFields) > 0 {
				out[ts.Name.Name] = sf
			}
		}
	}
}

func collectMethodStats(
	fset *token.FileSet,
	file *ast.File,
	relFile string,
	fieldsByStruct map[string]structFields,
	out *[]methodStats,
) {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvType == "" || recvName == "" {
			continue
		}
		sf, ok := fieldsByStruct[recvType]
		if !ok {
			continue
		}

		ownedCalls := 0
		ownedFields := map[string]bool{}
		aggCalls := 0
		aggMethods := map[string]bool{}

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			baseIdent, ok := rcvSel.X.(*ast.Ident)
			if !ok || baseIdent.Name != recvName {
				return true
			}
			field := rcvSel.Sel.Name
			method := fnSel.Sel.Name

			if rf, ok := sf.RepoFields[field]; ok && rf.Owned && repoWriteMethods[method] {
				ownedCalls++
				ownedFields[field] = true
				return true
			}
			if _, ok := sf.AggregateFields[field]; ok && aggregateWriteMethods[method] {
				aggCalls++
				aggMethods[method] = true
			}
			return true
		})

		*out = append(*out, methodStats{
			StructName:            recvType,
			Method:                fd.Name.Name,
			File:                  filepath.ToSlash(relFile),
			Line:                  fset.Position(fd.Pos()).Line,
			OwnedRepoWriteCalls:   ownedCalls,
			OwnedRepoFieldsWrites: sortedKeys(ownedFields),
			AggregateWriteCalls:   aggCalls,
			AggregateMethods:      sortedKeys(aggMethods),
		})
	}
}

func buildReport(fieldsByStruct map[string]structFields, methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})

	var report auditReport
	report.ServiceMethodsInspected = len(methods)

	structs := map[string]bool{}
	owned := map[string]repoField{}
	for structName, sf := range fieldsByStruct {
		if len(sf.RepoFields) > 0 {
			structs[structName] = true
		}
		for _, rf := range sf.RepoFields {
			if rf.Owned {
				owned[structName+"."+rf.Name] = rf
			}
		}
	}

	for _, m := range methods {
		if m.OwnedRepoWriteCalls > 0 {
			report.OwnedRepoWriteCallsites += m.OwnedRepoWriteCalls
			report.MethodsWithOwnedWrites = append(report.MethodsWithOwnedWrites, m)
		}
		if m.AggregateWriteCalls > 0 {
			report.AggregateWriteCallsites += m.AggregateWriteCalls
			report.MethodsUsingAggregates = append(report.MethodsUsingAggregates, m)
		}
	}

	report.ServiceStructsWithRepos = sortedKeys(structs)
	keys := make([]string, 0, len(owned))
	for k := range owned {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.OwnedRepoFieldInventory = append(report.OwnedRepoFieldInventory, owned[k])
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

// domainForRepoType reports which aggregate owns writes to a repo type.
// Users, roles, ratings and comments are written directly by their services.
func domainForRepoType(repoType string) (string, bool) {
	rt := strings.TrimSpace(repoType)
	switch {
	case rt == "":
		return "Unknown", false
	case rt == "ModelContributionLinkRepo", strings.HasPrefix(rt, "Contribution"):
		return "Contribution", true
	case strings.HasPrefix(rt, "Model"):
		return "Registry", true
	case strings.HasPrefix(rt, "Notification"):
		return "Notification", true
	case rt == "UserRepo", rt == "RoleRepo":
		return "Identity", false
	case rt == "RatingRepo", rt == "CommentRepo":
		return "Feedback", false
	default:
		return "Other", false
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
