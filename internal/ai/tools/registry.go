package tools

// Definition describes a tool that can be exposed to the model and MCP clients.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

type ParameterType string

const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
)

type Parameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
	Enum        []string
}

func (pt ParameterType) JSONType() string {
	switch pt {
	case ParamString:
		return "string"
	case ParamNumber:
		return "number"
	case ParamBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// RequiredParameters lists the names of the mandatory parameters.
func (d Definition) RequiredParameters() []string {
	var names []string
	for _, p := range d.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}
