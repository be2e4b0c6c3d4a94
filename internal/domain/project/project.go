package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

// NotAvailable is the placeholder source tables use for an absent sub service or material.
const NotAvailable = "N/A"

// Metadata keys stored alongside every project entry.
const (
	FieldID          = "id"
	FieldDescription = "project_description"
	FieldMainService = "main_service"
	FieldSubService  = "sub_service"
	FieldMaterial    = "material"
)

// Record is one row of the project table: a past manufacturing project and
// the services that were used for it.
type Record struct {
	Description string
	MainService string
	SubService  string
	Material    string
}

// New validates and creates a Record. Description and main service are required;
// sub service and material may be empty or NotAvailable.
func New(description, mainService, subService, material string) (Record, error) {
	if strings.TrimSpace(description) == "" {
		return Record{}, fmt.Errorf("%w: project_description is required", domain.ErrInvalidRecord)
	}
	if strings.TrimSpace(mainService) == "" {
		return Record{}, fmt.Errorf("%w: main_service is required", domain.ErrInvalidRecord)
	}
	return Record{
		Description: description,
		MainService: mainService,
		SubService:  subService,
		Material:    material,
	}, nil
}

// Sentence renders the canonical content sentence. Field order and wording are
// fixed: the identity is derived from these exact bytes.
func (r Record) Sentence() string {
	return fmt.Sprintf("프로젝트 '%s'의 주 서비스는 %s, 세부 서비스는 %s, 재료는 %s입니다.",
		r.Description, r.MainService, r.SubService, r.Material)
}

// ID is the lowercase hex SHA-256 of Sentence.
func (r Record) ID() string {
	sum := sha256.Sum256([]byte(r.Sentence()))
	return hex.EncodeToString(sum[:])
}

// Metadata returns the stored metadata, including the identity under FieldID.
func (r Record) Metadata() map[string]string {
	return map[string]string{
		FieldID:          r.ID(),
		FieldDescription: r.Description,
		FieldMainService: r.MainService,
		FieldSubService:  r.SubService,
		FieldMaterial:    r.Material,
	}
}

// FromMetadata rebuilds a Record from stored metadata. Missing keys become empty.
func FromMetadata(m map[string]string) Record {
	return Record{
		Description: m[FieldDescription],
		MainService: m[FieldMainService],
		SubService:  m[FieldSubService],
		Material:    m[FieldMaterial],
	}
}

// IsPresent reports whether a field value carries information.
func IsPresent(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}
