package service

import "fmt"

// Product reply texts. WhatsApp renders *bold* markup; these strings are the
// user-facing contract, keep wording changes coordinated with the ops team.
const (
	replyMenu = "👋 ¡Hola! Bienvenido a *AQUITA*.\n¿En qué puedo ayudarte?\n\n" +
		"1️⃣ *Registro* (usuarios)\n" +
		"2️⃣ *Afiliación* (negocios)\n" +
		"3️⃣ *Compartir pantalla* de stream\n\n" +
		"Por favor, responde con el *número* de tu opción."

	replyAskFirstName = "📝 *Registro de Usuario*\nPor favor, dime tu *nombre*:"

	replyAffiliation = "🏪 *Afiliación de Negocios*\nPara afiliar tu negocio, escríbenos al siguiente número:\n🔗 https://wa.me/584149577176"

	replyAskStreamLink = "📺 *Compartir Pantalla de Stream*\nPor favor, envíame el *enlace* de tu transmisión en vivo (ej: https://twitch.tv/tunombre):"

	replyFirstNameTooShort = "❌ El nombre debe tener al menos 2 caracteres. Por favor, inténtalo de nuevo:"
	replyAskLastName       = "Apellido:"
	replyLastNameTooShort  = "❌ El apellido debe tener al menos 2 caracteres. Por favor, inténtalo de nuevo:"
	replyAskCedula         = "Cédula (formato: V-12345678):"
	replyBadCedulaFormat   = "❌ Formato inválido. Por favor, usa el formato *V-12345678* o *E-12345678*:"
	replyAskPhone          = "Teléfono (formato: 04123456789):"
	replyBadPhoneFormat    = "❌ Formato inválido. Por favor, usa el formato *04123456789*:"

	replyRateLimited        = "⚠️ *Límite de solicitudes alcanzado*. Por favor, intenta nuevamente en 2 horas."
	replyVerificationError  = "❌ *Error inesperado al validar la cédula*. Inténtalo más tarde."
	replyAlreadyRegistered  = "❌ *La cédula %s ya está registrada* en nuestro sistema."
	replyCedulaNotFound     = "❌ *Cédula no válida o no encontrada* (%s)."
	replySaveFailed         = "❌ *Error al guardar el registro*. Por favor, inténtalo más tarde."
	replyRegistered         = "🎉 *¡Registro exitoso!*\nBienvenido, *%s %s*.\nTu cédula *%s* ha sido verificada."
	replyNamesMismatch      = "❌ *Los datos no coinciden* con los registros oficiales.\nIngresaste: *%s %s*\nRegistro oficial: *%s %s*"

	replyBadStreamLink      = "❌ *Enlace inválido*. Debe comenzar con *http://* o *https://*. Por favor, inténtalo de nuevo:"
	replyAskStreamCity      = "Ciudad donde se encuentra la transmisión:"
	replyCityTooShort       = "❌ El nombre de la ciudad debe tener al menos 3 caracteres. Por favor, inténtalo de nuevo:"
	replyAskStreamOwnerID   = "Para finalizar, por favor envíame tu *número de cédula* (formato: V-12345678) para asociar el stream a tu cuenta:"
	replyStreamOwnerUnknown = "❌ *No se encontró un usuario registrado* con la cédula *%s*. Por favor, regístrate primero usando la opción 1."
	replyStreamReceived     = "✅ *¡Solicitud recibida!*\nNuestro equipo revisará tu stream (*%s*) en *%s* y lo agregará a *AQUITA+* pronto."
	replyStreamSaveFailed   = "❌ *Error al guardar la solicitud*. Por favor, inténtalo más tarde."

	replyDidNotUnderstand = "❓ No entendí tu mensaje.\nPor favor, elige una opción:\n1️⃣ Registro\n2️⃣ Afiliación\n3️⃣ Compartir Stream"
)

func replyf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
