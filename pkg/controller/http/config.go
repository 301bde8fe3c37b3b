package http

import (
	"net/http"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

type departmentResponse struct {
	Name    string `json:"name"`
	Initial string `json:"initial"`
}

type categoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type attachmentPolicyResponse struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxSize           int64    `json:"max_size"`
}

type configResponse struct {
	Departments     []departmentResponse             `json:"departments"`
	Categories      []categoryResponse               `json:"categories"`
	CauseTaxonomies []types.CauseTaxonomy            `json:"cause_taxonomies"`
	Causes          map[types.CauseTaxonomy][]string `json:"causes"`
	Attachment      attachmentPolicyResponse         `json:"attachment"`
	Likelihood      []int                            `json:"likelihood"`
	Impact          []int                            `json:"impact"`
	MaxSingleRating int                              `json:"max_single_rating"`
}

// configHandler returns what the intake form needs to render its pick lists
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	cfg := s.uc.Config()

	resp := configResponse{
		Departments:     make([]departmentResponse, len(cfg.Departments)),
		Categories:      make([]categoryResponse, len(cfg.Categories)),
		CauseTaxonomies: types.AllCauseTaxonomies(),
		Causes:          cfg.Causes,
		Attachment: attachmentPolicyResponse{
			AllowedExtensions: cfg.Attachment.AllowedExtensions,
			MaxSize:           cfg.Attachment.Limit(),
		},
		Likelihood:      ratingScale(),
		Impact:          ratingScale(),
		MaxSingleRating: model.MaxSingleRating,
	}
	for i, d := range cfg.Departments {
		resp.Departments[i] = departmentResponse{Name: d.Name, Initial: d.Initial}
	}
	for i, c := range cfg.Categories {
		resp.Categories[i] = categoryResponse{Name: c.Name, Description: c.Description}
	}
	if len(resp.Attachment.AllowedExtensions) == 0 {
		resp.Attachment.AllowedExtensions = config.DefaultAllowedExtensions
	}

	writeJSON(r.Context(), w, http.StatusOK, resp)
}

func ratingScale() []int {
	scale := make([]int, 0, types.MaxScale-types.MinScale+1)
	for v := types.MinScale; v <= types.MaxScale; v++ {
		scale = append(scale, v)
	}
	return scale
}
