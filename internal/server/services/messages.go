package services

// User-facing messages.
const (
	msgRegistered             = "Persona registrada y contraseña enviada exitosamente."
	msgRegisteredMailFailed   = "Persona registrada, pero falló el envío del correo."
	msgRegisterFailed         = "No se pudo registrar la persona."
	msgDuplicateEmail         = "El correo ya está registrado."
	msgRegistrationForbidden  = "Solo un administrador puede registrar personas."
	msgAdminRoleForbidden     = "Solo un administrador puede registrar administradores."
	msgInvalidCedula          = "La cédula es inválida."
	msgEmailRequired          = "El correo es obligatorio."
	msgEmailInvalid           = "El correo no tiene un formato válido."
	msgFirstNameRequired      = "El primer nombre es obligatorio."
	msgFirstSurnameRequired   = "El primer apellido es obligatorio."
	msgRoleRequired           = "Debe seleccionar un rol válido."
	msgLoginOK                = "Login exitoso."
	msgLoginFailed            = "Correo o contraseña incorrectos."
	msgPasswordUpdated        = "Contraseña actualizada correctamente."
	msgCurrentPasswordInvalid = "La contraseña actual es incorrecta."
	msgPasswordTooShort       = "La nueva contraseña debe tener al menos 8 caracteres."
	msgResetSent              = "Se ha enviado un enlace para restablecer su contraseña."
	msgResetMailFailed        = "No se pudo enviar el correo de recuperación."
	msgEmailNotRegistered     = "Correo no registrado."
	msgResetDone              = "Contraseña restablecida con éxito."
	msgResetTokenInvalid      = "El enlace de recuperación es inválido o ha expirado."
	msgResetPersonMissing     = "No se encontró la persona asociada al enlace."
	msgInternal               = "Ocurrió un error interno. Intente de nuevo más tarde."
	msgProfileOK              = "Perfil obtenido correctamente."
	msgProfileUpdated         = "Perfil actualizado correctamente."
	msgProfileForbidden       = "No tiene permiso para acceder a este perfil."
	msgPersonNotFound         = "Persona no encontrada."
)
