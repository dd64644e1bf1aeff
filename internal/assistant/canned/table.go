package canned

import "github.com/quantumgateway/hotelchat/internal/assistant/intents"

// DefaultTemplates are the ready-made answers per intent. They describe where
// things are on the site and never state prices, schedules or policies.
func DefaultTemplates() map[string]string {
	return map[string]string{
		intents.Saludo: "¡Hola! Soy el asistente virtual del Hotel Quantum Gateway. " +
			"Puedo ayudarte a encontrar cualquier sección de esta página: reservas, habitaciones, servicios o contacto. ¿Qué necesitas?",
		intents.Cancelar: "Para cancelar tu reserva, abre la sección Mis Reservas desde el menú superior, " +
			"ingresa tu código de reserva y el correo con el que reservaste, y pulsa el botón Cancelar reserva. " +
			"Si no encuentras tu código, usa el formulario de la sección Contacto.",
		intents.Reservar: "Para reservar, abre la sección Reservas en el menú superior, elige tus fechas de llegada y salida " +
			"y pulsa Buscar disponibilidad. Luego selecciona una habitación, completa tus datos y confirma.",
		intents.Pagar: "El pago se realiza al final del proceso de reserva, en el paso Pago, dentro de la misma página. " +
			"Allí verás los medios de pago disponibles antes de confirmar.",
		intents.Contacto: "Puedes comunicarte con el hotel desde la sección Contacto del menú superior: " +
			"allí encontrarás el formulario de mensajes y el botón de WhatsApp de recepción.",
		intents.Horarios: "Los horarios de check-in y check-out están en la sección Información del Hotel, " +
			"a la que llegas desde el menú superior o desde el pie de página.",
		intents.Servicios: "Todos los servicios del hotel se describen en la sección Servicios del menú superior. " +
			"Pulsa cada tarjeta para ver los detalles.",
		intents.Ubicacion: "La ubicación y el mapa están en la sección Contacto, al final de la página. " +
			"También puedes llegar a ella desde el enlace Cómo llegar del pie de página.",
		intents.Despedida: "¡Gracias por escribirnos! Si necesitas algo más, aquí estaré para ayudarte a navegar la página.",
	}
}
