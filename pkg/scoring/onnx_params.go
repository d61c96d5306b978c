package scoring

// ONNXParameters locate an exported regression graph
type ONNXParameters struct {
	Path        string `json:"path" yaml:"path"`
	NumFeatures int    `json:"num_features" yaml:"num_features"`
	InputName   string `json:"input_name,omitempty" yaml:"input_name,omitempty"`
	OutputName  string `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
}

func (p ONNXParameters) inputName() string {
	if p.InputName == "" {
		return "float_input"
	}
	return p.InputName
}

func (p ONNXParameters) outputName() string {
	if p.OutputName == "" {
		return "variable"
	}
	return p.OutputName
}
