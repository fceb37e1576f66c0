package command

import "fmt"

const (
	messageGenericError = "Ein Fehler ist aufgetreten."
	messageAdminOnly    = "Nur Admins dürfen diesen Befehl verwenden."

	messageShiftNotFound      = "Schicht nicht gefunden."
	messageNoActiveShift      = "Keine aktive Schicht gefunden."
	messageNoPausedShift      = "Keine pausierte Schicht gefunden."
	messageNoOpenShift        = "Keine laufende oder pausierte Schicht gefunden."
	messageShiftNotAllowed    = "Du darfst diese Schicht nicht bearbeiten."
	messageShiftWrongState    = "Diese Aktion ist für den aktuellen Schicht-Status nicht möglich."
	messageNoShiftsForFilter  = "Keine Shifts gefunden für die Filter."
	messageNoShiftsToDelete   = "Keine Shifts gefunden zum Löschen."
	messageInvalidIDList      = "Keine gültigen IDs gefunden."
	messageNoLogs             = "Keine Logs gefunden."
	messageNoLoaRequests      = "Keine LoA-Anfragen gefunden."
	messageNoLoa              = "Keine LoA gefunden."
	messageLoaNotFound        = "LoA nicht gefunden."
	messageLoaAlreadyResolved = "Diese LoA wurde bereits bearbeitet."

	labelStartedBy    = "Started by"
	labelPausedBy     = "Paused by"
	labelResumedBy    = "Resumed by"
	labelEndedBy      = "Ended by"
	labelForceEndedBy = "Force ended by"
	labelBulkEndedBy  = "Ended by (admin bulk)"
	labelRequestedBy  = "Requested by"
	labelApprovedBy   = "Approved by"
	labelDeniedBy     = "Denied by"
)

func messageBulkEnded(count int) string {
	return fmt.Sprintf("Beendet: %d Shifts.", count)
}

func messageBulkDeleted(count int) string {
	return fmt.Sprintf("Gelöscht: %d Shifts.", count)
}

func messageShiftDeleted(shiftID int64, actorID string) string {
	return fmt.Sprintf("Shift ID: %d gelöscht von <@%s>.", shiftID, actorID)
}

func messageLoaApprovedDM(loaID int64) string {
	return fmt.Sprintf("Deine LoA (ID: %d) wurde genehmigt.", loaID)
}

func messageLoaDeniedDM(loaID int64) string {
	return fmt.Sprintf("Deine LoA (ID: %d) wurde abgelehnt.", loaID)
}
