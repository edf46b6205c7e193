package catalogs

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed project.schema.json
var projectSchemaJSON []byte

const projectSchemaURL = "mem://catalogs/project.schema.json"

var (
	projectSchemaOnce sync.Once
	projectSchema     *jsonschema.Schema
	projectSchemaErr  error
)

func compiledProjectSchema() (*jsonschema.Schema, error) {
	projectSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(projectSchemaURL, bytes.NewReader(projectSchemaJSON)); err != nil {
			projectSchemaErr = err
			return
		}
		projectSchema, projectSchemaErr = c.Compile(projectSchemaURL)
	})
	return projectSchema, projectSchemaErr
}

func validateProjects(raw []byte) error {
	s, err := compiledProjectSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
