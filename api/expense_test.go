package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ledger/service"
	"ledger/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv 内存存储 + 固定时钟 + 顺序 ID
type testEnv struct {
	svc  *service.ExpenseService
	view *Presenter
}

func newTestEnv(t *testing.T, opts ...service.Option) *testEnv {
	t.Helper()

	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	base := []service.Option{
		service.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(time.Minute)
			return now
		}),
		service.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}

	format, err := service.NewCurrencyFormatter("USD", "en", "iso")
	require.NoError(t, err)

	return &testEnv{
		svc:  service.NewExpenseService(store.NewMemoryStore(), append(base, opts...)...),
		view: NewPresenter(format),
	}
}

func (e *testEnv) router() *gin.Engine {
	r := gin.New()
	h := NewExpenseHandler(e.svc, e.view)
	r.GET("/expenses", h.List)
	r.GET("/expenses/:id", h.Get)
	r.POST("/expenses", h.Create)
	r.PUT("/expenses/:id", h.Update)
	r.DELETE("/expenses/:id", h.Delete)
	r.POST("/expenses/:id/pay", h.Pay)
	r.POST("/expenses/:id/toggle", h.Toggle)

	rh := NewReportHandler(e.svc, e.view)
	r.GET("/report/unpaid", rh.Unpaid)
	r.POST("/report/unpaid/:person/pay", rh.PayPerson)
	r.POST("/report/pay", rh.PayPersonByBody)
	r.GET("/history", rh.History)
	return r
}

func (e *testEnv) add(t *testing.T, person, item, cost string) string {
	t.Helper()
	rec, err := e.svc.Add(t.Context(), person, item, cost)
	require.NoError(t, err)
	return rec.ID
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func TestExpenseHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()

	w := doJSON(router, "POST", "/expenses", `{"person":"Martyna","item":"Groceries","cost":"50,75"}`)
	assert.Equal(t, 200, w.Code)

	var view ExpenseView
	resp := decode(t, w, &view)
	assert.Equal(t, "创建成功", resp.Message)
	assert.Equal(t, "id-1", view.ID)
	assert.Equal(t, "Martyna", view.Person)
	assert.Equal(t, "50.75", view.Cost)
	assert.Equal(t, "USD 50.75", view.CostText)
	assert.Equal(t, "unpaid", string(view.Status))
	assert.Nil(t, view.PaidAt)
	assert.Nil(t, view.PaidBatchID)
}

func TestExpenseHandler_Create_NumericCost(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(env.router(), "POST", "/expenses", `{"person":"Kasia","item":"Coffee","cost":20}`)
	assert.Equal(t, 200, w.Code)

	var view ExpenseView
	decode(t, w, &view)
	assert.Equal(t, "20.00", view.Cost)
}

func TestExpenseHandler_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"缺少姓名", `{"item":"Groceries","cost":"5"}`},
		{"缺少金额", `{"person":"Martyna","item":"Groceries"}`},
		{"金额为负", `{"person":"Martyna","item":"Groceries","cost":"-1"}`},
		{"金额为零", `{"person":"Martyna","item":"Groceries","cost":0}`},
		{"金额格式错误", `{"person":"Martyna","item":"Groceries","cost":"abc"}`},
		{"姓名只有空格", `{"person":"   ","item":"Groceries","cost":"5"}`},
		{"非法 JSON", `{"person":`},
		{"指数过大的数字", `{"person":"Martyna","item":"Groceries","cost":1e20000000}`},
		{"小数位过多", `{"person":"Martyna","item":"Groceries","cost":"0,0000001"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := doJSON(env.router(), "POST", "/expenses", tt.body)
			assert.Equal(t, 400, w.Code)

			records, err := env.svc.List(t.Context())
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestExpenseHandler_GetAndList(t *testing.T) {
	env := newTestEnv(t)
	first := env.add(t, "Martyna", "Groceries", "50.75")
	env.add(t, "Kasia", "Coffee", "5")
	_, err := env.svc.PayByItem(t.Context(), first)
	require.NoError(t, err)
	router := env.router()

	w := doJSON(router, "GET", "/expenses/"+first, "")
	assert.Equal(t, 200, w.Code)
	var view ExpenseView
	decode(t, w, &view)
	assert.Equal(t, "paid", string(view.Status))
	require.NotNil(t, view.PaidBatchID)

	var all []ExpenseView
	decode(t, doJSON(router, "GET", "/expenses", ""), &all)
	assert.Len(t, all, 2)

	var unpaid []ExpenseView
	decode(t, doJSON(router, "GET", "/expenses?status=unpaid", ""), &unpaid)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "Kasia", unpaid[0].Person)

	assert.Equal(t, 400, doJSON(router, "GET", "/expenses?status=other", "").Code)
	assert.Equal(t, 404, doJSON(router, "GET", "/expenses/missing", "").Code)
}

func TestExpenseHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	id := env.add(t, "Martyna", "Groceries", "50.75")
	router := env.router()

	w := doJSON(router, "PUT", "/expenses/"+id, `{"person":"Martyna","item":"Dinner","cost":"60,10"}`)
	assert.Equal(t, 200, w.Code)
	var view ExpenseView
	resp := decode(t, w, &view)
	assert.Equal(t, "修改成功", resp.Message)
	assert.Equal(t, "Dinner", view.Item)
	assert.Equal(t, "60.10", view.Cost)

	assert.Equal(t, 404, doJSON(router, "PUT", "/expenses/missing", `{"person":"a","item":"b","cost":"1"}`).Code)
	assert.Equal(t, 400, doJSON(router, "PUT", "/expenses/"+id, `{"person":"a","item":"b","cost":"-1"}`).Code)
}

func TestExpenseHandler_Update_PaidPolicy(t *testing.T) {
	body := `{"person":"Martyna","item":"Dinner","cost":"10"}`

	t.Run("默认禁止", func(t *testing.T) {
		env := newTestEnv(t)
		id := env.add(t, "Martyna", "Groceries", "50.75")
		_, err := env.svc.PayByItem(t.Context(), id)
		require.NoError(t, err)

		w := doJSON(env.router(), "PUT", "/expenses/"+id, body)
		assert.Equal(t, 409, w.Code)
	})

	t.Run("配置允许", func(t *testing.T) {
		env := newTestEnv(t, service.WithEditPaidPolicy(true))
		id := env.add(t, "Martyna", "Groceries", "50.75")
		_, err := env.svc.PayByItem(t.Context(), id)
		require.NoError(t, err)

		w := doJSON(env.router(), "PUT", "/expenses/"+id, body)
		assert.Equal(t, 200, w.Code)
		var view ExpenseView
		decode(t, w, &view)
		assert.Equal(t, "paid", string(view.Status))
		assert.Equal(t, "10.00", view.Cost)
	})
}

func TestExpenseHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	id := env.add(t, "Martyna", "Groceries", "50.75")
	router := env.router()

	w := doJSON(router, "DELETE", "/expenses/"+id, "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "删除成功", decode(t, w, nil).Message)

	assert.Equal(t, 404, doJSON(router, "GET", "/expenses/"+id, "").Code)
	assert.Equal(t, 404, doJSON(router, "DELETE", "/expenses/"+id, "").Code)
}

func TestExpenseHandler_Pay(t *testing.T) {
	env := newTestEnv(t)
	id := env.add(t, "Martyna", "Groceries", "50.75")
	router := env.router()

	w := doJSON(router, "POST", "/expenses/"+id+"/pay", "")
	assert.Equal(t, 200, w.Code)
	var batch HistoryView
	resp := decode(t, w, &batch)
	assert.Equal(t, "支付成功", resp.Message)
	assert.NotEmpty(t, batch.BatchID)
	assert.Equal(t, "Martyna", batch.Person)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "50.75", batch.Total)

	w = doJSON(router, "POST", "/expenses/"+id+"/pay", "")
	assert.Equal(t, 409, w.Code)
	assert.Contains(t, decode(t, w, nil).Message, "已支付")

	assert.Equal(t, 404, doJSON(router, "POST", "/expenses/missing/pay", "").Code)
}

func TestExpenseHandler_Toggle(t *testing.T) {
	env := newTestEnv(t)
	id := env.add(t, "Martyna", "Groceries", "50.75")
	router := env.router()

	var view ExpenseView
	decode(t, doJSON(router, "POST", "/expenses/"+id+"/toggle", ""), &view)
	assert.Equal(t, "paid", string(view.Status))
	assert.NotNil(t, view.PaidAt)
	assert.NotNil(t, view.PaidBatchID)

	decode(t, doJSON(router, "POST", "/expenses/"+id+"/toggle", ""), &view)
	assert.Equal(t, "unpaid", string(view.Status))
	assert.Nil(t, view.PaidAt)
	assert.Nil(t, view.PaidBatchID)

	assert.Equal(t, 404, doJSON(router, "POST", "/expenses/missing/toggle", "").Code)
}
