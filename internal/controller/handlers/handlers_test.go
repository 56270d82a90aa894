package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/memory"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

type sentMessage struct {
	method string
	chatID string
	text   string
}

// fakeTelegram принимает вызовы Bot API и запоминает отправленные сообщения
type fakeTelegram struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(32 << 20)

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	text := r.FormValue("text")
	if text == "" {
		text = r.FormValue("caption")
	}

	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{method: method, chatID: r.FormValue("chat_id"), text: text})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":     true,
		"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 1, "type": "private"}},
	})
}

func (f *fakeTelegram) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type harness struct {
	h        *Handlers
	bot      *bot.Bot
	telegram *fakeTelegram
	store    *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	horizon := service.Horizon{Days: 3, Now: func() time.Time { return testNow }}

	notifications := service.NewNotificationService(store, logger)
	h := NewHandlers(
		service.NewUserService(store, []int64{1}, logger),
		service.NewBookingService(store, notifications, logger),
		service.NewScheduleService(store, horizon, logger),
		service.NewAvailabilityService(store, horizon),
		notifications,
		NewUserLimiter(3),
		logger,
	)
	h.now = func() time.Time { return testNow }

	telegram := &fakeTelegram{}
	srv := httptest.NewServer(telegram)
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	return &harness{h: h, bot: b, telegram: telegram, store: store}
}

func (hs *harness) send(t *testing.T, handler bot.HandlerFunc, telegramID int64, text string) sentMessage {
	t.Helper()
	update := &models.Update{Message: &models.Message{
		Text: text,
		From: &models.User{ID: telegramID, FirstName: "User", Username: "user"},
		Chat: models.Chat{ID: telegramID},
	}}
	handler(context.Background(), hs.bot, update)
	return hs.telegram.last(t)
}

func (hs *harness) doctorWithSchedule(t *testing.T, morning, afternoon int) *model.Doctor {
	t.Helper()
	ctx := context.Background()
	d := &model.Doctor{Name: "Dr. House", Department: "Diagnostics", Permissions: model.DefaultCapabilities}
	require.NoError(t, hs.store.Doctors().Create(ctx, d))
	require.NoError(t, hs.store.Schedules().SetLimits(ctx, d.ID, testNow, morning, afternoon))
	return d
}

func TestStartRegistersUser(t *testing.T) {
	hs := newHarness(t)

	msg := hs.send(t, hs.h.HandleStart, 10, "/start")
	assert.Equal(t, "sendMessage", msg.method)
	assert.Equal(t, "10", msg.chatID)
	assert.Contains(t, msg.text, "user")

	u, err := hs.store.Users().GetByTelegramID(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestUnregisteredUserIsAskedToStart(t *testing.T) {
	hs := newHarness(t)

	msg := hs.send(t, hs.h.HandleDoctors, 10, "/doctors")
	assert.Contains(t, msg.text, "/start")
}

func TestBookAndCancelThroughBot(t *testing.T) {
	hs := newHarness(t)
	d := hs.doctorWithSchedule(t, 1, 1)
	hs.send(t, hs.h.HandleStart, 10, "/start")
	hs.send(t, hs.h.HandleStart, 11, "/start")

	msg := hs.send(t, hs.h.HandleBook, 10, "/book "+itoa(d.ID)+" 02.06 утро")
	assert.Contains(t, msg.text, "Вы записаны")

	msg = hs.send(t, hs.h.HandleBook, 11, "/book "+itoa(d.ID)+" 2025-06-02 morning")
	assert.Equal(t, errorText(model.ErrSlotFull), msg.text)

	msg = hs.send(t, hs.h.HandleDoctors, 10, "/doctors")
	assert.Contains(t, msg.text, "📌 утро 1/1")

	msg = hs.send(t, hs.h.HandleCancel, 10, "/cancel "+itoa(d.ID)+" 02.06 morning")
	assert.Contains(t, msg.text, "отменена")

	msg = hs.send(t, hs.h.HandleCancel, 10, "/cancel "+itoa(d.ID)+" 02.06 morning")
	assert.Equal(t, errorText(model.ErrAppointmentNotFound), msg.text)
}

func TestBookUsageAndPastDate(t *testing.T) {
	hs := newHarness(t)
	hs.send(t, hs.h.HandleStart, 10, "/start")

	msg := hs.send(t, hs.h.HandleBook, 10, "/book")
	assert.Contains(t, msg.text, usageBook)

	msg = hs.send(t, hs.h.HandleBook, 10, "/book 1 01.06.2025 morning")
	assert.Equal(t, errorText(errPastDate), msg.text)
}

func TestBookingIsThrottled(t *testing.T) {
	hs := newHarness(t)
	d := hs.doctorWithSchedule(t, 10, 10)
	hs.send(t, hs.h.HandleStart, 10, "/start")

	for i := 0; i < 3; i++ {
		hs.send(t, hs.h.HandleCancel, 10, "/cancel "+itoa(d.ID)+" 02.06 morning")
	}
	msg := hs.send(t, hs.h.HandleBook, 10, "/book "+itoa(d.ID)+" 02.06 morning")
	assert.Contains(t, msg.text, "Слишком много запросов")
}

func TestDoctorCommandsRequireLinkedDoctor(t *testing.T) {
	hs := newHarness(t)
	d := hs.doctorWithSchedule(t, 2, 2)
	hs.send(t, hs.h.HandleStart, 1, "/start")  // администратор
	hs.send(t, hs.h.HandleStart, 20, "/start") // будущий врач
	hs.send(t, hs.h.HandleStart, 10, "/start") // пациент

	msg := hs.send(t, hs.h.HandleSetSchedule, 20, "/setschedule 02.06 3 3")
	assert.Contains(t, msg.text, "только врачам")

	msg = hs.send(t, hs.h.HandleLinkDoctor, 10, "/linkdoctor 20 "+itoa(d.ID))
	assert.Contains(t, msg.text, "администраторам")

	msg = hs.send(t, hs.h.HandleLinkDoctor, 1, "/linkdoctor 20 "+itoa(d.ID))
	assert.Contains(t, msg.text, "привязан")

	msg = hs.send(t, hs.h.HandleSetSchedule, 20, "/setschedule 02.06 3 3")
	assert.Contains(t, msg.text, "Расписание обновлено")

	hs.send(t, hs.h.HandleBook, 10, "/book "+itoa(d.ID)+" 02.06 pm")

	msg = hs.send(t, hs.h.HandleNotifications, 20, "/notifications")
	assert.Contains(t, msg.text, "New appointment on 2025-06-02 afternoon")

	msg = hs.send(t, hs.h.HandleAppointments, 20, "/appointments")
	assert.Contains(t, msg.text, "пациент User @user")

	msg = hs.send(t, hs.h.HandleSchedule, 20, "/schedule")
	assert.Equal(t, "sendPhoto", msg.method)
	assert.Contains(t, msg.text, "утро 0/3  день 1/3")

	msg = hs.send(t, hs.h.HandleRead, 20, "/read")
	assert.Equal(t, errorText(model.ErrNoNotificationIDs), msg.text)

	msg = hs.send(t, hs.h.HandleRead, 20, "/read 1 99")
	assert.Contains(t, msg.text, "Прочитано: 1")

	// Без права на уведомления
	msg = hs.send(t, hs.h.HandlePermissions, 1, "/permissions "+itoa(d.ID)+" set_schedule")
	assert.Contains(t, msg.text, "set_schedule")

	msg = hs.send(t, hs.h.HandleNotifications, 20, "/notifications")
	assert.Equal(t, errorText(model.ErrPermissionDenied), msg.text)
}

func TestAdminRemovesAppointment(t *testing.T) {
	hs := newHarness(t)
	d := hs.doctorWithSchedule(t, 1, 1)
	hs.send(t, hs.h.HandleStart, 1, "/start")
	hs.send(t, hs.h.HandleStart, 10, "/start")
	hs.send(t, hs.h.HandleBook, 10, "/book "+itoa(d.ID)+" 02.06 morning")

	msg := hs.send(t, hs.h.HandleAllAppointments, 1, "/allappointments")
	assert.Contains(t, msg.text, "#1 02.06.2025 утро")

	msg = hs.send(t, hs.h.HandleRemoveAppointment, 1, "/removeappointment 1")
	assert.Contains(t, msg.text, "Удалена запись #1")

	entry, err := hs.store.Schedules().GetEntry(context.Background(), d.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.MorningBooked)

	msg = hs.send(t, hs.h.HandleRemoveAppointment, 1, "/removeappointment 1")
	assert.Equal(t, errorText(model.ErrAppointmentNotFound), msg.text)
}

func TestAdminAddsDoctorWhoCanThenReceiveBookings(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.send(t, hs.h.HandleStart, 1, "/start")
	hs.send(t, hs.h.HandleStart, 10, "/start")
	hs.send(t, hs.h.HandleStart, 20, "/start")

	msg := hs.send(t, hs.h.HandleAddDoctor, 10, "/adddoctor Dr. Cuddy; Administration")
	assert.Contains(t, msg.text, "администраторам")

	msg = hs.send(t, hs.h.HandleAddDoctor, 1, "/adddoctor")
	assert.Equal(t, errorText(model.ErrDoctorNameEmpty), msg.text)

	msg = hs.send(t, hs.h.HandleAddDoctor, 1, "/adddoctor Dr. Lisa Cuddy; Administration; Dean; 201")
	assert.Contains(t, msg.text, "Добавлен врач #1 Dr. Lisa Cuddy")

	doctor, err := hs.store.Doctors().GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, doctor)
	assert.Equal(t, "Administration", doctor.Department)
	assert.Equal(t, "201", doctor.OfficeNumber)
	assert.Equal(t, model.DefaultCapabilities, doctor.Permissions)

	hs.send(t, hs.h.HandleLinkDoctor, 1, "/linkdoctor 20 1")
	hs.send(t, hs.h.HandleSetSchedule, 20, "/setschedule 02.06 1 1")
	hs.send(t, hs.h.HandleBook, 10, "/book 1 02.06 morning")

	entry, err := hs.store.Schedules().GetEntry(ctx, 1, testNow)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.MorningBooked)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
