package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ошибки валидации графа зависимостей настроек.
var (
	// ErrDependencyCycle — зависимости настроек образуют цикл.
	ErrDependencyCycle = errors.New("dependency cycle in automation settings")

	// ErrCrossStageDependency — настройка ссылается на настройку другого этапа.
	ErrCrossStageDependency = errors.New("dependency crosses stage boundary")

	// ErrUnknownDependency — настройка ссылается на несуществующую настройку.
	ErrUnknownDependency = errors.New("dependency references unknown setting")
)

// ValidateDependencies проверяет граф зависимостей набора настроек.
//
// Зависимости хранятся как указатели на родителя (DependsOnTaskID);
// здесь из них строится явная структура смежности и проверяется, что:
//   - каждый родитель существует в наборе
//   - родитель принадлежит тому же этапу
//   - граф ацикличен
//
// Вызывается при создании и массовом обновлении настроек. Движок
// дополнительно перепроверяет границу этапа на исполнении — UI может
// отстать от фактического состояния БД.
func ValidateDependencies(settings []AutomationSetting) error {
	byID := make(map[uuid.UUID]*AutomationSetting, len(settings))
	for i := range settings {
		byID[settings[i].ID] = &settings[i]
	}

	// Смежность: родитель → дети.
	children := make(map[uuid.UUID][]uuid.UUID)
	for i := range settings {
		s := &settings[i]
		if s.DependsOnTaskID == nil {
			continue
		}
		parent, ok := byID[*s.DependsOnTaskID]
		if !ok {
			return fmt.Errorf("%w: setting %q depends on %s", ErrUnknownDependency, s.TaskName, *s.DependsOnTaskID)
		}
		if parent.StageID != s.StageID {
			return fmt.Errorf("%w: setting %q (stage %s) depends on %q (stage %s)",
				ErrCrossStageDependency, s.TaskName, s.StageID, parent.TaskName, parent.StageID)
		}
		children[parent.ID] = append(children[parent.ID], s.ID)
	}

	// Поиск цикла обходом в глубину: white → grey → black.
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[uuid.UUID]int, len(settings))

	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		switch color[id] {
		case grey:
			return fmt.Errorf("%w: setting %q", ErrDependencyCycle, byID[id].TaskName)
		case black:
			return nil
		}
		color[id] = grey
		for _, child := range children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for i := range settings {
		if err := visit(settings[i].ID); err != nil {
			return err
		}
	}
	return nil
}
