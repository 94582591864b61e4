package treesit

// Highlight queries, one per registered grammar. Capture names form the
// namespace that schemes map to styles; unknown names fall back to the
// default style, so queries are free to be more specific than any scheme.

const goQuery = `
(comment) @comment

(interpreted_string_literal) @string
(raw_string_literal) @string
(rune_literal) @string
(escape_sequence) @escape

(int_literal) @number
(float_literal) @number
(imaginary_literal) @number

[
  (true)
  (false)
  (nil)
  (iota)
] @constant

(type_identifier) @type
(field_identifier) @property
(package_identifier) @namespace

(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @function)
(call_expression function: (identifier) @function)
(call_expression
  function: (selector_expression
    field: (field_identifier) @function))

[
  "break"
  "case"
  "chan"
  "const"
  "continue"
  "default"
  "defer"
  "else"
  "fallthrough"
  "for"
  "func"
  "go"
  "goto"
  "if"
  "import"
  "interface"
  "map"
  "package"
  "range"
  "return"
  "select"
  "struct"
  "switch"
  "type"
  "var"
] @keyword

[
  ":="
  "="
  "=="
  "!="
  "&&"
  "||"
  "<-"
  "+"
  "-"
  "*"
  "/"
] @operator
`

const pythonQuery = `
(comment) @comment

(string) @string
(escape_sequence) @escape

(integer) @number
(float) @number

[
  (true)
  (false)
  (none)
] @constant

(function_definition name: (identifier) @function)
(class_definition name: (identifier) @type)
(call function: (identifier) @function)
(call
  function: (attribute
    attribute: (identifier) @function))
(decorator) @function

[
  "and"
  "as"
  "assert"
  "async"
  "await"
  "break"
  "class"
  "continue"
  "def"
  "del"
  "elif"
  "else"
  "except"
  "finally"
  "for"
  "from"
  "global"
  "if"
  "import"
  "in"
  "is"
  "lambda"
  "nonlocal"
  "not"
  "or"
  "pass"
  "raise"
  "return"
  "try"
  "while"
  "with"
  "yield"
] @keyword
`

const javascriptQuery = `
(comment) @comment

(string) @string
(template_string) @string
(regex) @string
(escape_sequence) @escape

(number) @number

[
  (true)
  (false)
  (null)
  (undefined)
] @constant

(function_declaration name: (identifier) @function)
(method_definition name: (property_identifier) @function)
(call_expression function: (identifier) @function)
(call_expression
  function: (member_expression
    property: (property_identifier) @function))

[
  "async"
  "await"
  "break"
  "case"
  "catch"
  "class"
  "const"
  "continue"
  "default"
  "delete"
  "do"
  "else"
  "export"
  "extends"
  "finally"
  "for"
  "function"
  "if"
  "import"
  "in"
  "instanceof"
  "let"
  "new"
  "of"
  "return"
  "static"
  "switch"
  "throw"
  "try"
  "typeof"
  "var"
  "void"
  "while"
  "yield"
] @keyword
`
