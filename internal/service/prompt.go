package service

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const suggestionSystemPrompt = `Eres un asistente de almuerzo IA, buena onda y que habla en chileno. ` +
	`Solo puedes recomendar restaurantes y platos de la lista que te entregan, usando sus ids exactos. ` +
	`Responde únicamente con JSON válido.`

var suggestionPrompt = template.Must(template.New("suggestion").Funcs(template.FuncMap{
	"json": toJSON,
}).Parse(`Tu objetivo es dar {{.Count}} recomendaciones de almuerzo súper personalizadas de {{.Count}} restaurantes DIFERENTES.
Tu búsqueda se limita a la lista de restaurantes disponibles. Están ordenados del más al menos afín a lo que pide el usuario.
{{- if .Req.FavoritesOnly}} El usuario pidió buscar solo en sus favoritos.{{end}}
{{- if .Req.NewOnly}} El usuario quiere probar restaurantes nuevos.{{end}}
{{- if .Req.FeaturedOnly}} El usuario quiere restaurantes destacados.{{end}}

Devuelve un objeto con el campo "suggestions": un arreglo de {{.Count}} objetos con:
1. "restaurant_id": el id del restaurante elegido.
2. "dish_id": el id de un plato del menú de ese restaurante.
3. "reasoning": un resumen de máximo 300 caracteres con la lógica de tu elección. Sé creativo y simpático.
4. "distance": la distancia al restaurante (ej: "a 5 minutos caminando").

Datos del usuario:
Ganas de comer: {{.Req.Cravings}}
{{- with .Req.PickyHabits}}
Mañas: {{.}}{{end}}
Nivel de presupuesto (0-100): {{.Req.Budget}}
Ganas de caminar (0-100): {{.Req.Distance}}
Tipo de servicio: {{.Service}}
{{- with .Req.PaymentMethods}}
Medios de pago preferidos: {{json .}}{{end}}
{{- with .Req.Discounts}}
Descuentos a usar: {{json .}}{{end}}
{{- if or .Req.EventTitle .Req.EventNotes}}

Contexto del evento:
Título: {{.Req.EventTitle}}
Notas: {{.Req.EventNotes}}{{end}}

Restaurantes disponibles:
{{json .Restaurants}}

Ahora, ¡tírate las {{.Count}} recomendaciones!`))

type promptDish struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int    `json:"price"`
	Vegan       bool   `json:"vegan,omitempty"`
}

type promptRestaurant struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Cuisine    string       `json:"cuisine"`
	Distance   string       `json:"distance"`
	PriceLevel int          `json:"price_level"`
	Rating     float64      `json:"rating"`
	Favorite   bool         `json:"favorite,omitempty"`
	New        bool         `json:"new,omitempty"`
	Menu       []promptDish `json:"menu"`
}

type promptData struct {
	Req         *types.MenuSuggestionRequest
	Service     string
	Count       int
	Restaurants []promptRestaurant
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// renderSuggestionPrompt builds the user prompt for the ranked candidates.
func renderSuggestionPrompt(req *types.MenuSuggestionRequest, ranked []*candidate, count int) (string, error) {
	data := promptData{Req: req, Service: "para servir", Count: count}
	if isTakeaway(req.ServiceType) {
		data.Service = "para llevar"
	}
	for _, c := range ranked {
		pr := promptRestaurant{
			ID:         c.restaurant.ID.String(),
			Name:       c.restaurant.Name,
			Cuisine:    c.restaurant.Cuisine,
			Distance:   geo.WalkingEstimate(c.restaurant.DistanceKm),
			PriceLevel: c.restaurant.PriceLevel,
			Rating:     c.restaurant.GoogleRating,
			Favorite:   c.favorite,
			New:        c.restaurant.IsNew,
		}
		for _, m := range c.menu {
			pr.Menu = append(pr.Menu, promptDish{
				ID:          m.ID.String(),
				Name:        m.Name,
				Description: truncate(m.Description, 120),
				Price:       m.UnitPrice(),
				Vegan:       m.IsVegan,
			})
		}
		data.Restaurants = append(data.Restaurants, pr)
	}

	var sb strings.Builder
	if err := suggestionPrompt.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
