package depchain

// DefaultIgnoredImports are bare import names tolerated in every package
// without a declaration.
var DefaultIgnoredImports = []string{"expo-modules-core"}

// DefaultIgnoredPackages are packages that are not checked at all.
var DefaultIgnoredPackages = []string{
	"@expo/cli",
	"@expo/config",
	"@expo/config-plugins",
	"@expo/config-types",
	"@expo/dev-server",
	"@expo/env",
	"@expo/fingerprint",
	"@expo/image-utils",
	"@expo/json-file",
	"@expo/metro-config",
	"@expo/metro-runtime",
	"@expo/osascript",
	"@expo/package-manager",
	"@expo/pkcs12",
	"@expo/plist",
	"@expo/prebuild-config",
	"@expo/schemer",
	"@expo/server",
	"babel-preset-expo",
	"create-expo",
	"create-expo-module",
	"create-expo-nightly",
	"eslint-config-expo",
	"eslint-config-universe",
	"eslint-plugin-expo",
	"expo",
	"expo-apple-authentication",
	"expo-application",
	"expo-asset",
	"expo-audio",
	"expo-auth-session",
	"expo-av",
	"expo-background-fetch",
	"expo-barcode-scanner",
	"expo-battery",
	"expo-blur",
	"expo-brightness",
	"expo-build-properties",
	"expo-calendar",
	"expo-camera",
	"expo-cellular",
	"expo-checkbox",
	"expo-clipboard",
	"expo-constants",
	"expo-contacts",
	"expo-crypto",
	"expo-dev-client",
	"expo-dev-client-components",
	"expo-dev-launcher",
	"expo-dev-menu",
	"expo-dev-menu-interface",
	"expo-device",
	"expo-doctor",
	"expo-document-picker",
	"expo-eas-client",
	"expo-env-info",
	"expo-face-detector",
	"expo-file-system",
	"expo-font",
	"expo-gl",
	"expo-haptics",
	"expo-image",
	"expo-image-loader",
	"expo-image-manipulator",
	"expo-image-picker",
	"expo-insights",
	"expo-intent-launcher",
	"expo-json-utils",
	"expo-keep-awake",
	"expo-linear-gradient",
	"expo-linking",
	"expo-local-authentication",
	"expo-localization",
	"expo-location",
	"expo-mail-composer",
	"expo-manifests",
	"expo-maps",
	"expo-media-library",
	"expo-module-scripts",
	"expo-module-template",
	"expo-module-template-local",
	"expo-modules-autolinking",
	"expo-modules-core",
	"expo-modules-test-core",
	"expo-navigation-bar",
	"expo-network",
	"expo-network-addons",
	"expo-notifications",
	"expo-print",
	"expo-processing",
	"expo-random",
	"expo-router",
	"expo-screen-capture",
	"expo-screen-orientation",
	"expo-secure-store",
	"expo-sensors",
	"expo-sharing",
	"expo-sms",
	"expo-speech",
	"expo-splash-screen",
	"expo-sqlite",
	"expo-standard-web-crypto",
	"expo-status-bar",
	"expo-store-review",
	"expo-structured-headers",
	"expo-symbols",
	"expo-system-ui",
	"expo-task-manager",
	"expo-test-runner",
	"expo-tracking-transparency",
	"expo-updates",
	"expo-updates-interface",
	"expo-video",
	"expo-video-thumbnails",
	"expo-web-browser",
	"expo-yarn-workspaces",
	"html-elements",
	"install-expo-modules",
	"jest-expo",
	"jest-expo-puppeteer",
	"patch-project",
	"pod-install",
	"react-native-unimodules",
	"unimodules-app-loader",
	"uri-scheme",
}
