package i18n

var english = map[string]string{
	"button_ok":  "Ok",
	"button_nok": "Cancel",

	"generic_error_title": "Error",

	"auth_title":                   "Authentication required",
	"auth_text":                    "Enter your user credentials (email and password). For this authentication to be successful, you must have previously registered with your user to the escape room on the platform.",
	"auth_title_wrong_credentials": "Authentication error",
	"auth_text_wrong_credentials":  "The credentials provided are not correct. You need to enter your user credentials (email and password). For this authentication to be successful, you must have previously registered with your user to the escape room on the platform.",
	"auth_email_label":             "Email",
	"auth_password_label":          "Password",

	"completion_title": "Escape Room Completed!",
	"completion_text":  "Congratulations! You have completed the escape room. On the platform you can check the ranking to see in which position you have finished.",

	"participation_error_TOO_LATE":          "You are a participant of this escape room but the turn you have signed up for has ended or you have run out of time.",
	"participation_error_NOT_ACTIVE":        "You are a participant of this escape room but the turn you have signed up for has not started yet.",
	"participation_error_NOT_STARTED":       "You are a participant of this escape room but you need to click on the 'Start' button on the platform in order to start the escape room.",
	"participation_error_NOT_A_PARTICIPANT": "You are not a participant of this escape room.",

	"puzzles_required": "You shouldn't be here. You must complete previous puzzles before accessing this one.",

	"restore_title":        "Status update",
	"restore_auto_text":    "A newer application status was found on the server. The application is going to be updated based on this status.",
	"restore_request_text": "A newer application status was found on the server. Do you want to update the application based on this status? If you don't, your application could be in a different state than the rest of your team members.",
	"restart_text":         "The escape room has been restarted by the staff. Your previous progress no longer applies.",

	"start_title": "Do you want to start the escape room?",
	"start_text":  "Press 'Ok' to start the escape room right now or 'Cancel' to start it later. Once the escape room has been started, time will start to run and it cannot be stopped.",

	"network_error_title": "Connection problem",
	"network_error_text":  "The platform could not be reached. Do you want to retry?",

	"notification_start": "The Escape Room begins. Good luck #{team}!",

	"notification_member_join":  "#{member} has joined the escape room.",
	"notification_member_leave": "#{member} has left the escape room.",
	"notification_hint_new":     "New hint: #{hint}",
	"notification_message":      "#{msg}",

	"notification_puzzle_success":      "Puzzle solved!",
	"notification_puzzle_success_end1": "Keep it up #{team}!",
	"notification_puzzle_success_end2": "Great job #{team}!",
	"notification_puzzle_success_end3": "#{team} is on fire!",

	"notification_ranking_1_up":        "#{team} takes the lead! You are now first.",
	"notification_ranking_1_same":      "#{team} is still leading the escape room. Keep it up!",
	"notification_ranking_2_up":        "#{team} moves up to second place!",
	"notification_ranking_2_same":      "#{team} holds second place.",
	"notification_ranking_2_displaced": "#{other} has taken the lead. #{team} is now second.",
	"notification_ranking_3_up":        "#{team} moves up to third place!",
	"notification_ranking_3_same":      "#{team} holds third place.",
	"notification_ranking_3_displaced": "#{other} has overtaken you. #{team} is now third.",

	"notification_ranking_up":             "#{team} moves up to position #{position}!",
	"notification_ranking_down":           "#{team} drops to position #{position}.",
	"notification_ranking_down_overtaken": "#{other} has overtaken you. #{team} drops to position #{position}.",
	"notification_ranking_same":           "#{team} is at position #{position}.",
	"notification_ranking_other_podium":   "#{other} has entered the top 3.",

	"notification_time_one_hour":          "1 hour remaining.",
	"notification_time_hours":             "#{hours} hours remaining.",
	"notification_time_hours_and_minutes": "#{hours} hours and #{minutes} minutes remaining.",
	"notification_time_one_minute":        "1 minute remaining.",
	"notification_time_minutes":           "#{minutes} minutes remaining.",
	"notification_time_runout":            "Time is up!",
}

var spanish = map[string]string{
	"button_ok":  "Ok",
	"button_nok": "Cancelar",

	"generic_error_title": "Error",

	"auth_title":                   "Autenticación necesaria",
	"auth_text":                    "Introduce las credenciales (correo y contraseña) de tu usuario en la plataforma. Para que esta autenticación tenga éxito, previamente debes de haberte inscrito con tu usuario a la escape room en la plataforma.",
	"auth_title_wrong_credentials": "Error de autenticación",
	"auth_text_wrong_credentials":  "Las credenciales aportadas no son correctas. Debes introducir las credenciales (correo y contraseña) de tu usuario en la plataforma. Para que esta autenticación tenga éxito, previamente debes de haberte inscrito con tu usuario a la escape room en la plataforma.",
	"auth_email_label":             "Correo electrónico",
	"auth_password_label":          "Contraseña",

	"completion_title": "¡Escape Room Completada!",
	"completion_text":  "¡Enhorabuena! Has completado la escape room. En la plataforma puedes consultar el ranking para ver en qué posición has finalizado.",

	"participation_error_TOO_LATE":          "Eres participante de esta escape room pero el turno al que te has apuntado ha terminado o te has quedado sin tiempo.",
	"participation_error_NOT_ACTIVE":        "Eres participante de esta escape room pero el turno al que te has apuntado aún no ha empezado.",
	"participation_error_NOT_STARTED":       "Eres participante de esta escape room pero no le has dado al botón de comenzar en la plataforma.",
	"participation_error_NOT_A_PARTICIPANT": "No eres participante de esta escape room.",

	"puzzles_required": "No deberías estar aquí. Debes completar retos anteriores antes de acceder a este.",

	"restore_title":        "Actualización de estado",
	"restore_auto_text":    "Se encontró un estado más reciente de la aplicación en el servidor. Se va a actualizar la aplicación en base a este estado.",
	"restore_request_text": "Se encontró un estado más reciente de la aplicación en el servidor. ¿Desea actualizar la aplicación en base a este estado? Si no lo hace su aplicación podría estar en un estado diferente al del resto de miembros de su equipo.",
	"restart_text":         "El personal ha reiniciado la escape room. Tu progreso anterior ya no es válido.",

	"start_title": "¿Quieres iniciar la escape room?",
	"start_text":  "Pulsa 'Ok' para empezar la escape room ahora mismo o 'Cancelar' para iniciarla en otro momento. Una vez iniciada la escape room, empezará a correr el tiempo y éste no podrá ser detenido.",

	"network_error_title": "Problema de conexión",
	"network_error_text":  "No se pudo conectar con la plataforma. ¿Quieres reintentarlo?",

	"notification_start": "Empieza la Escape Room. ¡Suerte #{team}!",

	"notification_member_join":  "#{member} se ha unido a la escape room.",
	"notification_member_leave": "#{member} ha abandonado la escape room.",
	"notification_hint_new":     "Nueva pista: #{hint}",
	"notification_message":      "#{msg}",

	"notification_puzzle_success":      "¡Reto superado!",
	"notification_puzzle_success_end1": "¡Sigue así #{team}!",
	"notification_puzzle_success_end2": "¡Gran trabajo #{team}!",
	"notification_puzzle_success_end3": "¡#{team} está en racha!",

	"notification_ranking_1_up":        "¡#{team} se pone en cabeza! Ahora sois primeros.",
	"notification_ranking_1_same":      "#{team} sigue liderando la escape room. ¡Seguid así!",
	"notification_ranking_2_up":        "¡#{team} sube al segundo puesto!",
	"notification_ranking_2_same":      "#{team} mantiene el segundo puesto.",
	"notification_ranking_2_displaced": "#{other} se ha puesto en cabeza. #{team} es ahora segundo.",
	"notification_ranking_3_up":        "¡#{team} sube al tercer puesto!",
	"notification_ranking_3_same":      "#{team} mantiene el tercer puesto.",
	"notification_ranking_3_displaced": "#{other} os ha adelantado. #{team} es ahora tercero.",

	"notification_ranking_up":             "¡#{team} sube a la posición #{position}!",
	"notification_ranking_down":           "#{team} baja a la posición #{position}.",
	"notification_ranking_down_overtaken": "#{other} os ha adelantado. #{team} baja a la posición #{position}.",
	"notification_ranking_same":           "#{team} está en la posición #{position}.",
	"notification_ranking_other_podium":   "#{other} ha entrado en el top 3.",

	"notification_time_one_hour":          "Queda 1 hora.",
	"notification_time_hours":             "Quedan #{hours} horas.",
	"notification_time_hours_and_minutes": "Quedan #{hours} horas y #{minutes} minutos.",
	"notification_time_one_minute":        "Queda 1 minuto.",
	"notification_time_minutes":           "Quedan #{minutes} minutos.",
	"notification_time_runout":            "¡Se acabó el tiempo!",
}
