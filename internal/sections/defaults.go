package sections

import (
	"github.com/five82/dials/internal/setting"
)

// Defaults returns the factory values of section in declaration order.
func Defaults(section setting.SectionPath) []setting.Setting {
	return setting.CloneList(defaults[section])
}

// DefaultValue returns the factory value of one key.
func DefaultValue(section setting.SectionPath, key setting.Key) (setting.Value, bool) {
	return setting.Find(defaults[section], key)
}

var defaults = map[setting.SectionPath][]setting.Setting{
	PasswordPolicies: {
		{Name: PasswordMinLength, Value: setting.Int(8)},
		{Name: PasswordMaxLength, Value: setting.Int(64)},
		{Name: PasswordRequireUppercase, Value: setting.Bool(true)},
		{Name: PasswordRequireLowercase, Value: setting.Bool(true)},
		{Name: PasswordRequireDigits, Value: setting.Bool(true)},
		{Name: PasswordRequireSpecial, Value: setting.Bool(false)},
		{Name: PasswordExpiryDays, Value: setting.Int(90)},
		{Name: PasswordHistoryCount, Value: setting.Int(5)},
	},
	Logging: {
		{Name: LoggingConsoleEnabled, Value: setting.Bool(true)},
		{Name: LoggingConsoleDebug, Value: setting.Bool(false)},
		{Name: LoggingConsoleInfo, Value: setting.Bool(true)},
		{Name: LoggingConsoleError, Value: setting.Bool(true)},
		{Name: LoggingFileEnabled, Value: setting.Bool(false)},
		{Name: LoggingRetentionDays, Value: setting.Int(30)},
	},
	Validation: {
		{Name: ValidationEmailRegex, Value: setting.String(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)},
		{Name: ValidationPhoneMask, Value: setting.String("+# (###) ###-####")},
		{Name: ValidationUsernameMinLength, Value: setting.Int(3)},
		{Name: ValidationUsernameMaxLength, Value: setting.Int(32)},
		{Name: ValidationDefaultCountry, Value: setting.String("US")},
	},
	Localization: {
		{Name: LocalizationDefaultLanguage, Value: setting.String("en")},
		{Name: LocalizationAllowedLanguages, Value: setting.Strings([]string{"en"})},
	},
	Regions: {
		{Name: RegionsEnabled, Value: setting.Bool(false)},
	},
}
