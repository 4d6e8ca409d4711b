package provider

import (
	"bytes"
	"fmt"
	"text/template"
)

const cloudConfigTemplate = `#cloud-config
ssh_pwauth: no
users:
  - name: {{.Username}}
    sudo: ALL=(ALL) NOPASSWD:ALL
    shell: /bin/bash
    ssh_authorized_keys:
      - "{{.PublicKey}}"`

type cloudConfigData struct {
	Username  string
	PublicKey string
}

// userData returns the init payload for a machine: the caller-supplied
// payload when there is one, otherwise a minimal cloud-config that
// installs the SSH key for the given user. Used by adapters whose vendor
// has no first-class SSH key object (GCP, Yandex Cloud).
func userData(spec CreateSpec, username string) (string, error) {
	if spec.UserData != "" {
		return spec.UserData, nil
	}

	tmpl, err := template.New("cloud-config").Parse(cloudConfigTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse cloud-config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cloudConfigData{Username: username, PublicKey: spec.SSHPublicKey}); err != nil {
		return "", fmt.Errorf("failed to render cloud-config: %w", err)
	}
	return buf.String(), nil
}
