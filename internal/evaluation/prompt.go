package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"medcomm-trainer/internal/rubric"
)

const verdictSchemaName = "evaluation_verdict"

func scoringInstructions(skills []rubric.Skill) string {
	names := make([]string, len(skills))
	for i, sk := range skills {
		names[i] = fmt.Sprintf("%q", sk.Name)
	}

	var b strings.Builder
	b.WriteString("You are an automated evaluation engine for medical communication training. ")
	b.WriteString("Analyze the conversation transcript and return a single valid JSON object with no text outside it.\n")
	b.WriteString("Evaluate only the lines prefixed with 'Doctor:'. The patient's lines are context.\n\n")
	b.WriteString("Rubric:\n")
	b.WriteString(rubric.Render(skills))
	b.WriteString("\nReturn one key per skill, using exactly these names: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\nEach value must be an object with an integer \"score\" from 1 to 5 and a short \"justification\".\n")
	b.WriteString(`Example: {"Empathy & Rapport Building": {"score": 3, "justification": "Acknowledged the concern but did not explore it."}}`)
	return b.String()
}

// verdictSchema describes a verdict for exactly the given skills.
func verdictSchema(skills []rubric.Skill) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	skillSchema, err := schemaToMap(reflector.Reflect(&SkillScore{}))
	if err != nil {
		return nil, err
	}
	delete(skillSchema, "$schema")
	delete(skillSchema, "$id")

	props := make(map[string]any, len(skills))
	required := make([]string, 0, len(skills))
	for _, sk := range skills {
		props[sk.Name] = skillSchema
		required = append(required, sk.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}, nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
