package model

// Result is the uniform outcome of every action endpoint.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type VersionsResponse struct {
	Success  bool     `json:"success"`
	Versions []string `json:"versions,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type Operator struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	DefaultChannel string `json:"defaultChannel"`
}

type OperatorsResponse struct {
	Success   bool       `json:"success"`
	Operators []Operator `json:"operators,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type MirrorCAResponse struct {
	Success   bool   `json:"success"`
	CAContent string `json:"ca_content,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SSHKeyResponse struct {
	Key   string `json:"key,omitempty"`
	Error string `json:"error,omitempty"`
}

type RunMirrorResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ProgressResponse struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Logs    []string `json:"logs"`
	Error   string   `json:"error,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
