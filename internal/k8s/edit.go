package k8s

import (
	"errors"
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
)

var (
	// ErrContextNotFound is returned when the context to edit is missing.
	ErrContextNotFound = errors.New("context not found")
	// ErrContextExists is returned when a rename collides with another
	// context.
	ErrContextExists = errors.New("context already exists")
)

// ValidateContext checks the fields a context edit must carry.
func ValidateContext(c Context) error {
	if c.Name == "" {
		return errors.New("context name is required")
	}
	if c.Namespace == "" {
		return errors.New("context namespace is required")
	}
	return nil
}

// EditContext replaces the context oldName of the kubeconfig at path with
// edited, renaming it when the names differ. The current context follows a
// rename. Cluster and User are written as given even when no such entry
// exists. Every other part of the file is kept.
func EditContext(path, oldName string, edited Context) error {
	if err := ValidateContext(edited); err != nil {
		return err
	}

	config, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	existing, ok := config.Contexts[oldName]
	if !ok || existing == nil {
		return fmt.Errorf("%w: %s", ErrContextNotFound, oldName)
	}
	if edited.Name != oldName {
		if _, taken := config.Contexts[edited.Name]; taken {
			return fmt.Errorf("%w: %s", ErrContextExists, edited.Name)
		}
	}

	updated := existing.DeepCopy()
	updated.Cluster = edited.Cluster
	updated.AuthInfo = edited.User
	updated.Namespace = edited.Namespace

	delete(config.Contexts, oldName)
	config.Contexts[edited.Name] = updated
	if config.CurrentContext == oldName {
		config.CurrentContext = edited.Name
	}

	if err := clientcmd.WriteToFile(*config, path); err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	return nil
}
