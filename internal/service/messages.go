package service

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

var chilean = language.MustParse("es-CL")

// Messages renders every user-facing notification text.
type Messages struct {
	loc     *time.Location
	baseURL string
	printer *message.Printer
	title   cases.Caser
}

func NewMessages(loc *time.Location, baseURL string) *Messages {
	if loc == nil {
		loc = time.UTC
	}
	return &Messages{
		loc:     loc,
		baseURL: baseURL,
		printer: message.NewPrinter(chilean),
		title:   cases.Title(chilean),
	}
}

// Text is a rendered notification.
type Text struct {
	Title string
	Body  string
	Link  string
}

// EventURL is the public link of an event.
func (m *Messages) EventURL(id fmt.Stringer) string {
	return fmt.Sprintf("%s/event/%s", m.baseURL, id)
}

// RatingURL is the public rating link of an event.
func (m *Messages) RatingURL(id fmt.Stringer) string {
	return fmt.Sprintf("%s/rate-event/%s", m.baseURL, id)
}

// When formats t in the configured zone as dd-mm-yyyy, HH:MM.
func (m *Messages) When(t time.Time) string {
	return t.In(m.loc).Format("02-01-2006, 15:04")
}

// Money formats an amount of Chilean pesos, e.g. $12.500.
func (m *Messages) Money(clp int) string {
	return m.printer.Sprintf("$%d", clp)
}

func (m *Messages) Invitation(e *models.LunchEvent, restaurant, guest string) Text {
	url := m.EventURL(e.ID)
	var body string
	switch e.Status {
	case models.EventWaitlisted:
		body = fmt.Sprintf("¡Hola %s! %s te ha puesto en la lista de espera para un almuerzo: %q en %s. Te notificaremos si se libera un espacio. Detalles: %s",
			guest, e.OrganizerName, e.Title, restaurant, url)
	case models.EventPendingConfirmation:
		body = fmt.Sprintf("¡Hola %s! %s ha solicitado una reserva para %q en %s. Te notificaremos tan pronto como el restaurante confirme. Detalles: %s",
			guest, e.OrganizerName, e.Title, restaurant, url)
	default:
		body = fmt.Sprintf("¡Hola %s! %s te ha invitado a un almuerzo: %q en %s. Revisa los detalles y confirma tu asistencia aquí: %s",
			guest, e.OrganizerName, e.Title, restaurant, url)
	}
	return Text{Title: "Invitación a almorzar: " + e.Title, Body: body, Link: url}
}

func (m *Messages) RestaurantBooking(e *models.LunchEvent) Text {
	when := m.When(e.StartsAt)
	var title, body string
	switch e.Status {
	case models.EventWaitlisted:
		title = "Nuevo registro en lista de espera"
		body = fmt.Sprintf("Nuevo registro en lista de espera para %d personas para el %s. Evento: %s. ID: %s.",
			e.PartySize, when, e.Title, e.ID)
	case models.EventPendingConfirmation:
		title = "Nueva solicitud de reserva"
		body = fmt.Sprintf("Nueva solicitud de reserva para %d personas para el %s. Evento: %s. ID: %s. Por favor, confirma o rechaza esta solicitud en tu panel de administrador.",
			e.PartySize, when, e.Title, e.ID)
	default:
		title = "Nueva reserva confirmada"
		body = fmt.Sprintf("Nueva reserva confirmada para %d personas el %s. Evento: %s. ID: %s.",
			e.PartySize, when, e.Title, e.ID)
	}
	return Text{Title: title, Body: body, Link: m.EventURL(e.ID)}
}

// CreatedMessage is shown to the organizer after booking.
func (m *Messages) CreatedMessage(status string, guests int) string {
	switch status {
	case models.EventWaitlisted:
		return "¡Estás en la lista de espera! Se notificó al restaurante y a tus invitados."
	case models.EventPendingConfirmation:
		return "¡Solicitud de reserva enviada! El restaurante ha sido notificado y te avisaremos cuando la confirmen."
	default:
		return fmt.Sprintf("¡Evento creado y %d invitaciones enviadas! El restaurante ha sido notificado.", guests)
	}
}

func (m *Messages) OrganizerCreated(e *models.LunchEvent, restaurant string, guests int) Text {
	return Text{
		Title: fmt.Sprintf("%s en %s", e.Title, restaurant),
		Body:  m.CreatedMessage(e.Status, guests) + " " + m.When(e.StartsAt) + ".",
		Link:  m.EventURL(e.ID),
	}
}

func (m *Messages) Decision(e *models.LunchEvent, restaurant string, accepted bool, reason string) Text {
	if accepted {
		return Text{
			Title: "Reserva confirmada",
			Body:  fmt.Sprintf("%s confirmó tu reserva %q para el %s.", restaurant, e.Title, m.When(e.StartsAt)),
			Link:  m.EventURL(e.ID),
		}
	}
	body := fmt.Sprintf("%s no pudo aceptar tu reserva %q para el %s.", restaurant, e.Title, m.When(e.StartsAt))
	if reason != "" {
		body += " Motivo: " + reason
	}
	return Text{Title: "Reserva rechazada", Body: body, Link: m.EventURL(e.ID)}
}

func (m *Messages) Cancellation(e *models.LunchEvent, restaurant string) Text {
	body := fmt.Sprintf("%s canceló el almuerzo %q en %s del %s.", e.OrganizerName, e.Title, restaurant, m.When(e.StartsAt))
	if e.CancellationReason != "" {
		body += " Motivo: " + e.CancellationReason
	}
	return Text{Title: "Almuerzo cancelado", Body: body, Link: m.EventURL(e.ID)}
}

func (m *Messages) Promotion(e *models.LunchEvent, restaurant string) Text {
	return Text{
		Title: "¡Se liberó un espacio!",
		Body:  fmt.Sprintf("Tu almuerzo %q en %s del %s salió de la lista de espera y está confirmado.", e.Title, restaurant, m.When(e.StartsAt)),
		Link:  m.EventURL(e.ID),
	}
}

func (m *Messages) NoShow(e *models.LunchEvent, restaurant string) Text {
	deadline := e.StartsAt
	if e.CheckInDeadline != nil {
		deadline = *e.CheckInDeadline
	}
	return Text{
		Title: "Reserva marcada como no asistida",
		Body:  fmt.Sprintf("No registramos tu check-in para %q en %s antes de las %s. La reserva se liberó.", e.Title, restaurant, deadline.In(m.loc).Format("15:04")),
		Link:  m.EventURL(e.ID),
	}
}

func (m *Messages) RatingRequest(e *models.LunchEvent, restaurant string) Text {
	url := m.RatingURL(e.ID)
	body := fmt.Sprintf(`Hola, %s,

¡Esperamos que hayas disfrutado tu almuerzo! Tu opinión es muy importante para la comunidad de almuerzo.cl.

Por favor, tómate un momento para calificar tu experiencia en %q.

Califícalo en una escala de 1 a 5 tenedores aquí:
%s

¡Gracias por tu ayuda!

El equipo de almuerzo.cl`, e.OrganizerName, restaurant, url)
	return Text{Title: fmt.Sprintf("¿Cómo estuvo tu almuerzo en %s?", restaurant), Body: body, Link: url}
}

var orderStatusText = map[string]string{
	models.OrderPending:   "recibido",
	models.OrderPreparing: "en preparación",
	models.OrderReady:     "listo para retirar",
	models.OrderDelivered: "entregado",
	models.OrderCancelled: "cancelado",
}

func (m *Messages) OrderStatus(o *models.TakeawayOrder, restaurant string) Text {
	status := orderStatusText[o.Status]
	body := fmt.Sprintf("Tu pedido en %s por %s está %s.", restaurant, m.Money(o.Total), status)
	if o.Status == models.OrderPending || o.Status == models.OrderPreparing {
		body += " Retiro estimado: " + m.When(o.PickupAt) + "."
	}
	return Text{Title: "Pedido " + m.title.String(status), Body: body}
}

func (m *Messages) RestaurantOrder(o *models.TakeawayOrder) Text {
	return Text{
		Title: "Nuevo pedido para llevar",
		Body:  fmt.Sprintf("Nuevo pedido de %d productos por %s. Retiro: %s.", len(o.Items), m.Money(o.Total), m.When(o.PickupAt)),
	}
}
