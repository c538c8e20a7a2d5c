package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"leadflow/internal/lead"
)

// Conversation states. A session sits in stateIdle between flows.
const (
	stateIdle       = "idle"
	stateChooseKind = "choose_kind"
	stateLookup     = "lookup"

	stateClientName        = "client_name"
	stateClientPhone       = "client_phone"
	stateClientUsername    = "client_username"
	stateClientCity        = "client_city"
	stateClientProperty    = "client_property"
	stateClientArea        = "client_area"
	stateClientStage       = "client_stage"
	stateClientDescription = "client_description"

	statePartnerRole        = "partner_role"
	statePartnerRoleOther   = "partner_role_other"
	statePartnerName        = "partner_name"
	statePartnerPhone       = "partner_phone"
	statePartnerUsername    = "partner_username"
	statePartnerCity        = "partner_city"
	statePartnerProperty    = "partner_property"
	statePartnerArea        = "partner_area"
	statePartnerStage       = "partner_stage"
	statePartnerProject     = "partner_project"
	statePartnerFiles       = "partner_files"
	statePartnerBudget      = "partner_budget"
	statePartnerComments    = "partner_comments"
	statePartnerTerms       = "partner_terms"
	statePartnerTermsCustom = "partner_terms_custom"
)

// Events.
const (
	evNewRequest = "new_request"
	evClient     = "client"
	evPartner    = "partner"
	evLookup     = "lookup"
	evNext       = "next"
	evOther      = "other"
	evUpload     = "upload"
	evCustom     = "custom"
	evFinish     = "finish"
	evReset      = "reset"
)

// step describes what a state asks and which submission field the answer fills.
type step struct {
	field    string
	prompt   string
	keyboard [][]string
}

var steps = map[string]step{
	stateChooseKind: {prompt: msgChooseKind, keyboard: [][]string{{BtnClient}, {BtnPartner}}},
	stateLookup:     {prompt: msgAskIdentifier},

	stateClientName:     {field: lead.FieldName, prompt: msgClientName},
	stateClientPhone:    {field: lead.FieldPhone, prompt: msgClientPhone},
	stateClientUsername: {field: lead.FieldUsername, prompt: msgClientUsername},
	stateClientCity:     {field: lead.FieldCity, prompt: msgClientCity},
	stateClientProperty: {field: lead.FieldPropertyType, prompt: msgClientProperty,
		keyboard: [][]string{{BtnApartment}, {BtnHouse}, {BtnCommercial}}},
	stateClientArea: {field: lead.FieldArea, prompt: msgClientArea},
	stateClientStage: {field: lead.FieldStage, prompt: msgClientStage,
		keyboard: [][]string{{BtnNotStarted}, {BtnRough}, {BtnFinishing}, {BtnFinished}}},
	stateClientDescription: {field: lead.FieldDescription, prompt: msgClientDescription},

	statePartnerRole: {field: lead.FieldRole, prompt: msgPartnerRole,
		keyboard: [][]string{{BtnDesigner, BtnForeman}, {BtnRealtor, BtnDeveloper}, {BtnPlumber, BtnOther}}},
	statePartnerRoleOther: {field: lead.FieldRole, prompt: msgPartnerRoleOther},
	statePartnerName:      {field: lead.FieldName, prompt: msgPartnerName},
	statePartnerPhone:     {field: lead.FieldPhone, prompt: msgPartnerPhone},
	statePartnerUsername:  {field: lead.FieldUsername, prompt: msgPartnerUsername},
	statePartnerCity:      {field: lead.FieldCity, prompt: msgPartnerCity},
	statePartnerProperty: {field: lead.FieldPropertyType, prompt: msgPartnerProperty,
		keyboard: [][]string{{BtnApartment}, {BtnHouse}, {BtnCommercial}, {BtnOther}}},
	statePartnerArea: {field: lead.FieldArea, prompt: msgPartnerArea},
	statePartnerStage: {field: lead.FieldStage, prompt: msgPartnerStage,
		keyboard: [][]string{{BtnStageProject}, {BtnRough}, {BtnFinishing}, {BtnFinished}}},
	statePartnerProject: {field: lead.FieldProjectPresence, prompt: msgPartnerProject,
		keyboard: [][]string{{BtnYesProject}, {BtnPlanScheme}, {BtnNoProject}}},
	statePartnerFiles: {prompt: msgPartnerUpload, keyboard: [][]string{{BtnDone}}},
	statePartnerBudget: {field: lead.FieldBudget, prompt: msgPartnerBudget,
		keyboard: [][]string{{lead.BudgetUnknown}}},
	statePartnerComments: {field: lead.FieldComments, prompt: msgPartnerComments},
	statePartnerTerms: {field: lead.FieldTermsChoice, prompt: msgPartnerTerms,
		keyboard: [][]string{{lead.TermsAcceptCashback}, {lead.TermsCustom}}},
	statePartnerTermsCustom: {field: lead.FieldTermsCustom, prompt: msgPartnerTermsCustom},
}

var clientFlow = []string{
	stateClientName, stateClientPhone, stateClientUsername, stateClientCity,
	stateClientProperty, stateClientArea, stateClientStage, stateClientDescription,
}

var partnerFlow = []string{
	statePartnerRole, statePartnerName, statePartnerPhone, statePartnerUsername,
	statePartnerCity, statePartnerProperty, statePartnerArea, statePartnerStage,
	statePartnerProject, statePartnerBudget, statePartnerComments, statePartnerTerms,
}

func allStates() []string {
	out := []string{stateIdle, stateChooseKind, stateLookup, statePartnerRoleOther, statePartnerFiles, statePartnerTermsCustom}
	out = append(out, clientFlow...)
	return append(out, partnerFlow...)
}

func chain(flow []string) fsm.Events {
	var ev fsm.Events
	for i := 0; i+1 < len(flow); i++ {
		ev = append(ev, fsm.EventDesc{Name: evNext, Src: []string{flow[i]}, Dst: flow[i+1]})
	}
	return ev
}

func events() fsm.Events {
	all := allStates()
	ev := fsm.Events{
		{Name: evNewRequest, Src: all, Dst: stateChooseKind},
		{Name: evLookup, Src: all, Dst: stateLookup},
		{Name: evReset, Src: all, Dst: stateIdle},
		{Name: evClient, Src: all, Dst: stateClientName},
		{Name: evPartner, Src: all, Dst: statePartnerRole},

		{Name: evOther, Src: []string{statePartnerRole}, Dst: statePartnerRoleOther},
		{Name: evNext, Src: []string{statePartnerRoleOther}, Dst: statePartnerName},
		{Name: evUpload, Src: []string{statePartnerProject}, Dst: statePartnerFiles},
		{Name: evNext, Src: []string{statePartnerFiles}, Dst: statePartnerBudget},
		{Name: evCustom, Src: []string{statePartnerTerms}, Dst: statePartnerTermsCustom},

		{Name: evFinish, Src: []string{stateClientDescription, statePartnerTerms, statePartnerTermsCustom}, Dst: stateIdle},
	}
	ev = append(ev, chain(clientFlow)...)
	return append(ev, chain(partnerFlow)...)
}

// Session is one user's conversation: the fsm position plus the answers
// collected so far.
type Session struct {
	ChatID int64
	Kind   lead.Kind
	Data   lead.Submission
	Files  []lead.Attachment

	fsm *fsm.FSM
}

func newSession(chatID int64, logger *zap.Logger) *Session {
	s := &Session{ChatID: chatID, Data: lead.Submission{}}
	s.fsm = fsm.NewFSM(stateIdle, events(), fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			logger.Debug("dialog transition",
				zap.Int64("chat_id", chatID),
				zap.String("event", e.Event),
				zap.String("from", e.Src),
				zap.String("to", e.Dst),
			)
		},
		"enter_" + stateClientName: func(context.Context, *fsm.Event) { s.begin(lead.KindClient) },
		"enter_" + statePartnerRole: func(context.Context, *fsm.Event) { s.begin(lead.KindPartner) },
	})
	return s
}

// begin clears answers from an earlier, unfinished flow.
func (s *Session) begin(kind lead.Kind) {
	s.Kind = kind
	s.Data = lead.Submission{}
	s.Files = nil
}

// State returns the current fsm state.
func (s *Session) State() string { return s.fsm.Current() }

// Fire triggers an event. Re-entering the current state (for example
// /start while idle) is not an error.
func (s *Session) Fire(ctx context.Context, event string) error {
	err := s.fsm.Event(ctx, event)
	var noop fsm.NoTransitionError
	if errors.As(err, &noop) {
		return nil
	}
	return err
}

// Attach records an uploaded file and marks the submission as having files.
func (s *Session) Attach(a lead.Attachment) {
	s.Files = append(s.Files, a)
	s.Data[lead.FieldFiles] = strconv.Itoa(len(s.Files))
}

// sessions is the per-chat session registry.
type sessions struct {
	mu     sync.Mutex
	byChat map[int64]*Session
	logger *zap.Logger
}

func newSessions(logger *zap.Logger) *sessions {
	return &sessions{byChat: make(map[int64]*Session), logger: logger}
}

func (r *sessions) get(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byChat[chatID]
	if !ok {
		s = newSession(chatID, r.logger)
		r.byChat[chatID] = s
	}
	return s
}
