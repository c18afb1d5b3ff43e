// Package recommendation serves product recommendations. Matching is not
// implemented yet and the list is always empty.
package recommendation

import (
	"net/http"

	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
)

// Product mirrors a row of the products table.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

type Recommendation struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
	Reason  *string `json:"reason,omitempty"`
}

type Response struct {
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// List returns personalized product recommendations
// @Summary      Product recommendations
// @Tags         recommendations
// @Produce      json
// @Success      200 {object} Response
// @Router       /recommendations [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, r, Response{
		Message:         "Product recommendations endpoint - coming soon",
		Recommendations: []Recommendation{},
	}, http.StatusOK)
}
