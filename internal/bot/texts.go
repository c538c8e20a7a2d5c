package bot

// Main menu.
const (
	MenuNewRequest = "📝 Новые заявки"
	MenuMyRequests = "👤 Мои заявки"
	MenuContacts   = "📞 Контакты"
	MenuHelp       = "❓ Помощь"

	BtnClient  = "🏠 Я заказчик"
	BtnPartner = "🤝 Я партнёр"
	BtnDone    = "Готово"
	BtnRefresh = "🔄 Обновить"
	BtnDetails = "[Детали]"
)

// Reply keyboard choices. Free text is accepted as well.
const (
	BtnApartment  = "Квартира"
	BtnHouse      = "Дом"
	BtnCommercial = "Коммерческое помещение"
	BtnOther      = "Другое"

	BtnNotStarted = "Ремонт ещё не начат"
	BtnRough      = "Черновой этап"
	BtnFinishing  = "Чистовой этап"
	BtnFinished   = "Ремонт завершён"

	BtnStageProject = "Проектирование"

	BtnDesigner  = "Дизайнер"
	BtnForeman   = "Прораб"
	BtnRealtor   = "Риелтор"
	BtnDeveloper = "Застройщик"
	BtnPlumber   = "Сантехник"

	BtnYesProject = "Да, есть проект"
	BtnPlanScheme = "Есть план / схема"
	BtnNoProject  = "Нет проекта"
)

const responseHours = 24

const (
	msgWelcome = "Здравствуйте! 👋\n\nЭтот бот принимает заявки на ремонт и электромонтаж от заказчиков и партнёров. " +
		"Через него же вы узнаете о каждом изменении статуса вашей заявки.\n\nВыберите действие в меню."
	msgChooseKind = "Выберите тип заявки:"

	msgClientName        = "Как вас зовут?"
	msgClientPhone       = "Укажите номер телефона для связи:"
	msgClientUsername    = "Ваш ник в Telegram (или «-», если не хотите указывать):"
	msgClientCity        = "Город / район объекта:"
	msgClientProperty    = "Тип объекта:"
	msgClientArea        = "Площадь объекта, м²:"
	msgClientStage       = "На какой стадии ремонт?"
	msgClientDescription = "Опишите задачу: что нужно сделать?"
	msgClientComplete    = "✅ Спасибо! Заявка #%d принята. Мы свяжемся с вами в течение %d часов."

	msgPartnerRole        = "Кем вы работаете?"
	msgPartnerRoleOther   = "Пожалуйста, уточните вашу роль:"
	msgPartnerName        = "Ваше имя или название компании:"
	msgPartnerPhone       = "Телефон для связи:"
	msgPartnerUsername    = "Ваш ник в Telegram (или «-»):"
	msgPartnerCity        = "Город / район объекта:"
	msgPartnerProperty    = "Тип объекта:"
	msgPartnerArea        = "Площадь объекта, м²:"
	msgPartnerStage       = "Стадия объекта:"
	msgPartnerProject     = "Есть ли проект электрики?"
	msgPartnerUpload      = "Пришлите файлы проекта (фото или документы). Когда закончите, нажмите «Готово»."
	msgFileReceived       = "Файл получен. Отправьте ещё файл или нажмите «Готово»."
	msgFileExpected       = "Пожалуйста, отправьте файл/фото или нажмите «Готово»."
	msgPartnerBudget      = "Ориентировочный бюджет на электрику:"
	msgPartnerComments    = "Комментарии к объекту:"
	msgPartnerTerms       = "Мы выплачиваем партнёрам 10% кэшбэк от стоимости работ. Подходят ли вам такие условия?"
	msgPartnerTermsCustom = "Опишите ваши условия:"
	msgPartnerComplete    = "✅ Спасибо за сотрудничество! Заявка #%d передана, мы свяжемся с вами в течение %d часов."

	msgSaveFailed = "Заявка не сохранена, попробуйте ещё раз"

	msgAskIdentifier  = "Введите номер телефона или ID заявки для поиска:"
	msgNotFound       = "Заявки не найдены. Попробуйте ещё раз или вернитесь в меню."
	msgNoRequests     = "У вас пока нет заявок."
	msgRequestsHeader = "📂 Ваши заявки:\n\n"
	msgRequestGone    = "Заявка не найдена или была удалена."
	msgLoadFailed     = "Ошибка при загрузке данных. Пожалуйста, попробуйте позже."
	msgRefreshing     = "Обновление данных..."

	msgContactsClient  = "📞 Наши контакты:\nТелефон: +7 (XXX) XXX-XX-XX\nEmail: info@example.com"
	msgContactsPartner = "📞 Контакты для партнёров:\nТелефон: +7 (XXX) XXX-XX-XX\nEmail: partners@example.com"
	msgHelp            = "❓ Помощь\nИспользуйте меню для навигации.\nДля проверки статуса заявок нажмите «👤 Мои заявки»."
	msgUnknown         = "Не понял вас. Воспользуйтесь меню или командой /start."

	msgAdminOnly        = "Команда доступна только администраторам."
	msgStatusUsage      = "Использование: /status <id> <статус> [комментарий]"
	msgStatusUpdated    = "Статус заявки #%s изменён на «%s»."
	msgStoreUnavailable = "Таблица заявок сейчас недоступна, попробуйте позже."
	msgNoOpenLeads      = "Открытых заявок нет."
)
