package service

import (
	"fmt"
	"strings"
)

// Metadata keys stored alongside every service entry.
const (
	FieldServiceName   = "service_name"
	FieldParentService = "parent_service"
)

// Definition is one row of the service table. A row with a sub service
// describes that sub service within its main service; otherwise it describes
// the main service itself.
type Definition struct {
	MainService string
	SubService  string
	Description string
}

// IsSub reports whether the row describes a sub service.
func (d Definition) IsSub() bool {
	return strings.TrimSpace(d.SubService) != ""
}

// Content renders the stored text, carrying the parent service for sub services.
func (d Definition) Content() string {
	if d.IsSub() {
		return fmt.Sprintf("주 서비스 '%s'의 세부 서비스인 '%s'에 대한 설명: %s",
			d.MainService, d.SubService, d.Description)
	}
	return fmt.Sprintf("주 서비스 '%s'에 대한 설명: %s", d.MainService, d.Description)
}

// Metadata returns service_name (and parent_service for sub services).
func (d Definition) Metadata() map[string]string {
	if d.IsSub() {
		return map[string]string{
			FieldServiceName:   d.SubService,
			FieldParentService: d.MainService,
		}
	}
	return map[string]string{FieldServiceName: d.MainService}
}
