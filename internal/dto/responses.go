package dto

// ErrorResponse — единый формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse — единый формат успешного ответа с сообщением.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CheckoutResponse — платёж и ссылка на оплату у провайдера.
type CheckoutResponse struct {
	PaymentID   string `json:"payment_id"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// ListResponse — обёртка списков с пагинацией.
type ListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
