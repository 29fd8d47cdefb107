package dto

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type SubmitTaskRequest struct {
	OperationKind string                 `json:"operation_kind"`
	Targets       []string               `json:"targets"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
	Owner         string                 `json:"owner,omitempty"`
}

func (r *SubmitTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.OperationKind == "" {
		errors["operation_kind"] = "operation_kind is required"
	}
	if len(r.Targets) == 0 {
		errors["targets"] = "at least one target is required"
	}
	for _, t := range r.Targets {
		if t == "" {
			errors["targets"] = "targets must not contain empty entries"
			break
		}
	}
	return errors
}

type OperationsResponse struct {
	Operations []string `json:"operations"`
}
