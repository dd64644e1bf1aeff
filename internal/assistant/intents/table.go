package intents

import "regexp"

// Intent labels.
const (
	Cancelar  = "cancelar"
	Reservar  = "reservar"
	Pagar     = "pagar"
	Contacto  = "contacto"
	Horarios  = "horarios"
	Servicios = "servicios"
	Ubicacion = "ubicacion"
	Saludo    = "saludo"
	Despedida = "despedida"
)

// DefaultTable is the ordered rule set for the hotel site. Order is part of
// the contract: "quiero cancelar mi reserva" must land on Cancelar before the
// Reservar rule sees "reserva", and a greeting only wins when nothing more
// specific was asked.
func DefaultTable() Table {
	return Table{
		{Label: Cancelar, Pattern: regexp.MustCompile(`cancel|anular`)},
		{Label: Reservar, Pattern: regexp.MustCompile(`reserv|hosped|disponibilidad`)},
		{Label: Pagar, Pattern: regexp.MustCompile(`\bpag(o|os|ar|ue)\b|tarjeta|factura|transferencia`)},
		{Label: Contacto, Pattern: regexp.MustCompile(`contact|tel[ée]fono|whatsapp|correo|e-?mail|recepci[óo]n`)},
		{Label: Horarios, Pattern: regexp.MustCompile(`horario|check.?in|check.?out|a qu[ée] hora`)},
		{Label: Servicios, Pattern: regexp.MustCompile(`servicio|piscina|\bspa\b|gimnasio|restaurante|desayuno|wi-?fi|estacionamiento`)},
		{Label: Ubicacion, Pattern: regexp.MustCompile(`ubicaci[óo]n|d[óo]nde (est[áa]n|queda)|direcci[óo]n|c[óo]mo llego|mapa`)},
		{Label: Saludo, Pattern: regexp.MustCompile(`\b(hola|buenas|buenos d[íi]as|saludos|hey)\b`)},
		{Label: Despedida, Pattern: regexp.MustCompile(`\b(adi[óo]s|gracias|hasta luego|chao|nos vemos)\b`)},
	}
}
