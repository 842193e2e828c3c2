package main

import (
	"bytes"
	_ "embed"
	"flag"
	"fmt"
	"go/format"
	"go/types"
	"log"
	"os"
	"text/template"

	"golang.org/x/tools/go/packages"
)

const (
	k8sMetaV1PackagePath    = "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sMetaV1TypeMetaType   = "TypeMeta"
	k8sMetaV1ObjectMetaType = "ObjectMeta"
	k8sMetaV1ConditionType  = "Condition"
	TypeMetaFieldName       = "TypeMeta"
	ObjectMetaFieldName     = "ObjectMeta"
	StatusFieldName         = "Status"
	ConditionsFieldName     = "Conditions"
	listTypeSuffix          = "List"
)

var (
	//go:embed object.go.tmpl
	tmplText string
)

type templateData struct {
	PackageName string
	StructName  string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("objecter: ")

	var typeName string
	flag.StringVar(&typeName, "type", "", "type name")
	flag.Parse()
	if len(flag.Args()) != 0 {
		log.Fatal("arguments not allowed")
	} else if typeName == "" {
		log.Fatal("-type is required")
	}

	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
		Tests: false,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		log.Fatal(err)
	} else if len(pkgs) != 1 {
		log.Fatalf("Expected 1 package, found %d", len(pkgs))
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		for _, err := range pkg.Errors {
			log.Printf("Error loading package: %v", err)
		}
		os.Exit(1)
	}

	if err := validateObjectType(pkg.Types.Scope(), typeName); err != nil {
		log.Fatal(err)
	}

	code, err := render(templateData{PackageName: pkg.Name, StructName: typeName})
	if err != nil {
		log.Fatal(err)
	}

	dstFile := typeName + "_object.go"
	if err := os.WriteFile(dstFile, code, 0644); err != nil {
		log.Fatalf("Failed writing code to '%s': %v", dstFile, err)
	}
}

// validateObjectType verifies that the named type is an exported struct embedding TypeMeta & ObjectMeta, with a
// Status struct carrying a Conditions slice, and that a matching list type exists.
func validateObjectType(scope *types.Scope, typeName string) error {
	typeInfo := scope.Lookup(typeName)
	if typeInfo == nil {
		return fmt.Errorf("could not find type '%s'", typeName)
	} else if !typeInfo.Exported() {
		return fmt.Errorf("type '%s' is not exported", typeName)
	}

	structType, err := structOf(typeInfo.Type())
	if err != nil {
		return fmt.Errorf("type '%s': %w", typeName, err)
	}

	var typeMetaFound, objectMetaFound, statusFound bool
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		switch field.Name() {
		case TypeMetaFieldName:
			if err := expectMetaV1(field.Type(), k8sMetaV1TypeMetaType); err != nil {
				return fmt.Errorf("field '%s': %w", field.Name(), err)
			}
			typeMetaFound = true
		case ObjectMetaFieldName:
			if err := expectMetaV1(field.Type(), k8sMetaV1ObjectMetaType); err != nil {
				return fmt.Errorf("field '%s': %w", field.Name(), err)
			}
			objectMetaFound = true
		case StatusFieldName:
			if err := expectConditions(field.Type()); err != nil {
				return fmt.Errorf("field '%s': %w", field.Name(), err)
			}
			statusFound = true
		}
	}
	if !typeMetaFound {
		return fmt.Errorf("type does not have '%s' field", TypeMetaFieldName)
	} else if !objectMetaFound {
		return fmt.Errorf("type does not have '%s' field", ObjectMetaFieldName)
	} else if !statusFound {
		return fmt.Errorf("type does not have '%s' field", StatusFieldName)
	}

	if scope.Lookup(typeName+listTypeSuffix) == nil {
		return fmt.Errorf("could not find list type '%s%s'", typeName, listTypeSuffix)
	}
	return nil
}

func structOf(t types.Type) (*types.Struct, error) {
	namedType, ok := t.(*types.Named)
	if !ok {
		return nil, fmt.Errorf("not a named type")
	}
	structType, ok := namedType.Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("not a struct")
	}
	return structType, nil
}

func expectMetaV1(t types.Type, name string) error {
	namedType, ok := t.(*types.Named)
	if !ok {
		return fmt.Errorf("expected a named type")
	}
	obj := namedType.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != k8sMetaV1PackagePath || obj.Name() != name {
		return fmt.Errorf("expected type '%s.%s'", k8sMetaV1PackagePath, name)
	}
	return nil
}

func expectConditions(t types.Type) error {
	structType, err := structOf(t)
	if err != nil {
		return err
	}
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		if field.Name() != ConditionsFieldName {
			continue
		}
		slice, ok := field.Type().(*types.Slice)
		if !ok {
			return fmt.Errorf("'%s' is not a slice", ConditionsFieldName)
		}
		return expectMetaV1(slice.Elem(), k8sMetaV1ConditionType)
	}
	return fmt.Errorf("no '%s' field", ConditionsFieldName)
}

func render(data templateData) ([]byte, error) {
	tmpl, err := template.New("object").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("error parsing template: %w", err)
	}

	var processed bytes.Buffer
	if err := tmpl.Execute(&processed, data); err != nil {
		return nil, fmt.Errorf("error generating code: %w", err)
	}

	formatted, err := format.Source(processed.Bytes())
	if err != nil {
		return nil, fmt.Errorf("could not format processed template: %w\n%s", err, processed.String())
	}
	return formatted, nil
}
