package i18n

var esMX = map[string]string{
	"loading":  "Cargando...",
	"signIn":   "Iniciar sesión",
	"signOut":  "Cerrar sesión",
	"welcome":  "Bienvenido a Mi Aplicación",
	"subtitle": "Una aplicación web moderna",

	"dashboard":      "Panel de control",
	"adminDashboard": "Panel de administración",
	"adminWelcome":   "¡Bienvenido, administrador! Aquí puedes gestionar usuarios y realizar tareas administrativas.",
	"accountCreated": "Cuenta creada",
	"user":           "Usuario",

	"invalidCredentials":     "Correo o contraseña incorrectos.",
	"accountDisabled":        "Tu cuenta está desactivada.",
	"tooManyAttempts":        "Demasiados intentos. Intenta de nuevo más tarde.",
	"tooManyAttemptsAccount": "Demasiados intentos para esta cuenta. Intenta de nuevo más tarde.",
	"signedOut":              "Sesión cerrada.",
	"googleUnavailable":      "El inicio de sesión con Google no está disponible.",
	"googleFailed":           "No se pudo iniciar sesión con Google.",
	"googleNotRegistered":    "Esta cuenta de Google no está registrada. Usa una invitación.",

	"invitationMissing":    "No se proporcionó invitación.",
	"invitationNotFound":   "Invitación no encontrada.",
	"invitationUsed":       "Esta invitación ya fue utilizada.",
	"invitationExpired":    "Esta invitación ha expirado.",
	"invitationGenerated":  "Invitación generada.",
	"invitationError":      "No se pudo generar la invitación.",
	"invalidWindow":        "La vigencia debe ser de 1, 3, 7, 14 o 30 días.",
	"registrationComplete": "Registro completado.",
	"alreadyRegistered":    "Esta cuenta ya está registrada.",
	"emailInUse":           "El correo ya está en uso.",
	"weakPassword":         "La contraseña debe tener al menos 6 caracteres.",
	"invalidEmail":         "Correo electrónico inválido.",

	"profileUpdated":     "Perfil actualizado.",
	"profileUpdateError": "Error al actualizar el perfil.",
	"photoUpdated":       "Foto actualizada.",
	"photoUpdateError":   "Error al actualizar la foto.",
	"invalidImage":       "El archivo debe ser una imagen de hasta 5 MB.",
	"preferencesSaved":   "Preferencias guardadas.",
	"userUpdated":        "Usuario actualizado.",
	"userUpdateError":    "Error al actualizar el usuario.",
	"cannotDemoteSelf":   "No puedes quitarte el rol de administrador ni desactivarte.",

	"firstAdminCreated": "Cuenta de administrador creada.",
	"firstAdminExists":  "Ya existe un administrador.",

	"validationFailed": "Revisa los datos enviados.",
	"notFound":         "No encontrado.",
	"unauthorized":     "Debes iniciar sesión.",
	"forbidden":        "No tienes permiso para ver esta página.",
	"serverError":      "Ocurrió un error. Intenta de nuevo.",
	"loadError":        "No se pudo cargar la información.",

	"housingCatalog":            "Catálogo de vivienda",
	"housingCatalogDescription": "Explora las viviendas disponibles.",
	"creditSimulator":           "Simulador de crédito",
	"creditInvalid":             "Revisa el monto, la tasa y el plazo.",
}

var en = map[string]string{
	"loading":  "Loading...",
	"signIn":   "Sign in",
	"signOut":  "Sign out",
	"welcome":  "Welcome to My App",
	"subtitle": "A modern web application",

	"dashboard":      "Dashboard",
	"adminDashboard": "Admin dashboard",
	"adminWelcome":   "Welcome, admin! Here you can manage users and run administrative tasks.",
	"accountCreated": "Account created",
	"user":           "User",

	"invalidCredentials":     "Incorrect email or password.",
	"accountDisabled":        "Your account is disabled.",
	"tooManyAttempts":        "Too many attempts. Try again later.",
	"tooManyAttemptsAccount": "Too many attempts for this account. Try again later.",
	"signedOut":              "Signed out.",
	"googleUnavailable":      "Google sign-in is not available.",
	"googleFailed":           "Google sign-in failed.",
	"googleNotRegistered":    "This Google account is not registered. Use an invitation.",

	"invitationMissing":    "No invitation was provided.",
	"invitationNotFound":   "Invitation not found.",
	"invitationUsed":       "This invitation has already been used.",
	"invitationExpired":    "This invitation has expired.",
	"invitationGenerated":  "Invitation generated.",
	"invitationError":      "Could not generate the invitation.",
	"invalidWindow":        "Validity must be 1, 3, 7, 14 or 30 days.",
	"registrationComplete": "Registration complete.",
	"alreadyRegistered":    "This account is already registered.",
	"emailInUse":           "Email already in use.",
	"weakPassword":         "Password must be at least 6 characters.",
	"invalidEmail":         "Invalid email address.",

	"profileUpdated":     "Profile updated.",
	"profileUpdateError": "Could not update the profile.",
	"photoUpdated":       "Photo updated.",
	"photoUpdateError":   "Could not update the photo.",
	"invalidImage":       "The file must be an image of at most 5 MB.",
	"preferencesSaved":   "Preferences saved.",
	"userUpdated":        "User updated.",
	"userUpdateError":    "Could not update the user.",
	"cannotDemoteSelf":   "You cannot remove your own admin role or disable yourself.",

	"firstAdminCreated": "Admin account created.",
	"firstAdminExists":  "An admin already exists.",

	"validationFailed": "Please check the submitted data.",
	"notFound":         "Not found.",
	"unauthorized":     "You must sign in.",
	"forbidden":        "You are not allowed to view this page.",
	"serverError":      "Something went wrong. Please try again.",
	"loadError":        "Could not load the data.",

	"housingCatalog":            "Housing catalog",
	"housingCatalogDescription": "Browse the available homes.",
	"creditSimulator":           "Credit simulator",
	"creditInvalid":             "Check the amount, rate and term.",
}
