package engine

import "testing"

func TestRenderTitle(t *testing.T) {
	tests := []struct {
		name     string
		template string
		orderID  int64
		want     string
	}{
		{"placeholder", "Распил по заказу #{order_id}", 42, "Распил по заказу 42"},
		{"no placeholder", "Распил деталей", 42, "Распил деталей"},
		{"multiple placeholders", "#{order_id}/#{order_id}", 7, "7/7"},
		{"empty template", "", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTitle(tt.template, tt.orderID); got != tt.want {
				t.Errorf("RenderTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderDescription(t *testing.T) {
	got := RenderDescription("Распилить детали по чертежу", 42, "Кухня Иванова")
	want := "Распилить детали по чертежу (Заказ: Кухня Иванова)"
	if got != want {
		t.Errorf("RenderDescription() = %q, want %q", got, want)
	}
}

func TestRenderDescription_EmptyTitle(t *testing.T) {
	// Без названия заказа подставляется его номер
	got := RenderDescription("Распилить детали", 42, "")
	want := "Распилить детали (Заказ: 42)"
	if got != want {
		t.Errorf("RenderDescription() = %q, want %q", got, want)
	}
}

func TestRenderDescription_Placeholder(t *testing.T) {
	got := RenderDescription("Заказ #{order_id}, детали", 5, "Шкаф")
	want := "Заказ 5, детали (Заказ: Шкаф)"
	if got != want {
		t.Errorf("RenderDescription() = %q, want %q", got, want)
	}
}
