package notify

import (
	"fmt"
	"strings"

	"leadflow/internal/lead"
)

// Substituted into status messages when the row leaves a field empty.
const (
	NoStatus   = "не указан"
	NoComment  = "нет"
	NoEstimate = "не заполнено"
)

// StatusMessage renders the requester notification for a transition. The
// status is shown in canonical form.
func StatusMessage(tr lead.Transition) string {
	status := string(lead.CanonicalStatus(tr.NewStatus))
	if status == "" {
		status = NoStatus
	}
	comment := strings.TrimSpace(tr.Comment)
	if comment == "" {
		comment = NoComment
	}
	estimate := strings.TrimSpace(tr.Attachment)
	if estimate == "" {
		estimate = NoEstimate
	}
	return fmt.Sprintf("Статус вашей заявки #%s изменён на: %s.\nКомментарий: %s.\nСмета: %s",
		tr.RecordID, status, comment, estimate)
}

// LeadAnnouncement renders the admin summary of a stored lead.
func LeadAnnouncement(r lead.Record) string {
	var b strings.Builder
	kind, _ := lead.ParseKind(r.Kind)

	if kind == lead.KindPartner {
		fmt.Fprintf(&b, "Заявка #%s\nТип заявки: ПАРТНЁР\n\n", r.ID)
		fmt.Fprintf(&b, "💼 Роль партнера: %s\n", r.PartnerRole)
	} else {
		fmt.Fprintf(&b, "Заявка #%s\nТип заявки: КЛИЕНТ\n\n", r.ID)
	}
	fmt.Fprintf(&b, "👤 Имя: %s\n", r.Name)
	fmt.Fprintf(&b, "📞 Телефон: %s\n", r.Phone)
	fmt.Fprintf(&b, "✈️ Telegram: %s\n", orDash(r.TelegramHandle))
	if kind == lead.KindPartner {
		b.WriteString("\n🏗 Объект:\n")
	}
	fmt.Fprintf(&b, "🏙 Город / район: %s\n", r.City)
	fmt.Fprintf(&b, "🏠 Тип объекта: %s\n", r.PropertyType)
	fmt.Fprintf(&b, "📏 Площадь (м²): %s\n", r.Area)
	fmt.Fprintf(&b, "🔨 Стадия ремонта: %s\n", r.Stage)

	if kind != lead.KindPartner {
		fmt.Fprintf(&b, "📝 Задача: %s\n", r.Comment)
		return b.String()
	}

	fmt.Fprintf(&b, "🔌 Наличие проекта: %s\n", r.ProjectInfo)
	fmt.Fprintf(&b, "💰 Бюджет: %s\n", r.Budget)
	fmt.Fprintf(&b, "💬 Комментарии: %s\n\n", orDash(r.Comment))
	fmt.Fprintf(&b, "📄 Условия партнёрства:\n%s\n", orDash(r.PartnershipTerms))
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
