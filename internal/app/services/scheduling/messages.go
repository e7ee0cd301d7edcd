package scheduling

// User-facing messages.
const (
	MsgMissingMentor          = "Falta el identificador del mentor."
	MsgMissingParties         = "La cita debe indicar mentor y emprendedor."
	MsgMissingSlot            = "Selecciona un horario disponible."
	MsgInvalidStatus          = "Estado de cita inválido."
	MsgSlotSaveFailed         = "No se pudo guardar el horario."
	MsgSlotRemoveFailed       = "No se pudo eliminar el horario."
	MsgSlotNotFound           = "Horario no encontrado."
	MsgSlotTaken              = "Este horario ya fue reservado."
	MsgAvailabilityLoadFailed = "No se pudo cargar la disponibilidad."
	MsgAppointmentSaveFailed  = "No se pudo crear la cita."
	MsgStatusUpdateFailed     = "No se pudo actualizar la cita."
	MsgAppointmentNotFound    = "Cita no encontrada."
	MsgAppointmentsLoadFailed = "No se pudieron cargar las citas."
	MsgNotificationsFailed    = "No se pudieron cargar las notificaciones."
	MsgNotificationNotFound   = "Notificación no encontrada."
	MsgMarkReadFailed         = "No se pudo marcar la notificación como leída."
	MsgSummaryFailed          = "No se pudo cargar el resumen."
)

// Notification messages.
const (
	NoteRequest             = "Tienes una nueva solicitud de cita"
	NoteConfirmed           = "Tu cita ha sido confirmada"
	NoteCancelled           = "La cita ha sido cancelada"
	NoteRescheduleRequested = "Se ha solicitado reprogramar la cita"
	NoteCompleted           = "La cita ha sido marcada como completada"
	NoteUpdated             = "La cita ha sido actualizada"
)
