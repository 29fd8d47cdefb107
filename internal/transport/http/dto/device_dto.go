package dto

type CreateDeviceRequest struct {
	Name       string `json:"name"`
	IP         string `json:"ip"`
	SSHPort    int    `json:"ssh_port,omitempty"`
	Platform   string `json:"platform,omitempty"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

func (r *CreateDeviceRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "name is required"
	}
	if r.IP == "" {
		errors["ip"] = "ip is required"
	}
	if r.Username == "" {
		errors["username"] = "username is required"
	}
	if r.Password == "" && r.PrivateKey == "" {
		errors["credentials"] = "either password or private_key is required"
	}
	if r.SSHPort < 0 || r.SSHPort > 65535 {
		errors["ssh_port"] = "ssh_port must be between 0 and 65535"
	}
	return errors
}

type UpdateDeviceRequest struct {
	Name       *string `json:"name,omitempty"`
	SSHPort    *int    `json:"ssh_port,omitempty"`
	Platform   *string `json:"platform,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	PrivateKey *string `json:"private_key,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}
