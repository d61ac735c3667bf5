package domain

import "errors"

var (
	// ErrEmptyQuestion вопрос пустой или состоит из пробелов
	ErrEmptyQuestion = errors.New("вопрос не может быть пустым")

	// ErrEmptyAnswer ответ пустой или состоит из пробелов
	ErrEmptyAnswer = errors.New("ответ не может быть пустым")

	// ErrRepositoryRequired репозиторий не передан
	ErrRepositoryRequired = errors.New("требуется репозиторий обучающих данных")

	// ErrReloadFailed пример сохранен, но перезагрузить базу знаний не удалось
	ErrReloadFailed = errors.New("не удалось перезагрузить базу знаний")

	// ErrUnknownDriver неизвестный драйвер хранилища
	ErrUnknownDriver = errors.New("неизвестный драйвер хранилища")
)
